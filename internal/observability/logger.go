package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/lmittmann/tint"

	"github.com/couchcryptid/flood-monitor-service/internal/config"
)

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default. LOG_FORMAT is "json" (default), "text", or
// "pretty" for colored console output.
func NewLogger(cfg *config.Config) *slog.Logger {
	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if !strings.EqualFold(cfg.LogFormat, "pretty") {
		return logger
	}
	logger = prettyLogger(os.Stdout, logger.Handler())
	slog.SetDefault(logger)
	return logger
}

// prettyLogger writes tint output at the lowest level base accepts.
func prettyLogger(w io.Writer, base slog.Handler) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{Level: minLevel(base), TimeFormat: time.DateTime}))
}

func minLevel(h slog.Handler) slog.Level {
	for _, lvl := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn} {
		if h.Enabled(context.Background(), lvl) {
			return lvl
		}
	}
	return slog.LevelError
}
