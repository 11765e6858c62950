// Package notify fans alert events out to every configured delivery sink.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/flood-monitor-service/internal/domain"
	"github.com/couchcryptid/flood-monitor-service/internal/observability"
)

// Sink delivers one alert event to an external channel.
type Sink interface {
	Name() string
	Notify(ctx context.Context, event domain.AlertEvent) error
}

// Fanout delivers each event to all sinks concurrently. Every sink gets its own
// timeout; one failing sink does not prevent delivery to the others.
type Fanout struct {
	sinks   []Sink
	timeout time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewFanout creates a fanout over sinks. A non-positive timeout disables the
// per-sink deadline.
func NewFanout(sinks []Sink, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Fanout {
	return &Fanout{sinks: sinks, timeout: timeout, metrics: metrics, logger: logger}
}

// Len reports the number of configured sinks.
func (f *Fanout) Len() int { return len(f.sinks) }

// Notify returns nil when every sink succeeded, otherwise the joined sink errors.
// With no sinks configured it is a no-op.
func (f *Fanout) Notify(ctx context.Context, event domain.AlertEvent) error {
	errs := make([]error, len(f.sinks))
	var wg sync.WaitGroup
	for i, sink := range f.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = f.deliver(ctx, sink, event)
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (f *Fanout) deliver(ctx context.Context, sink Sink, event domain.AlertEvent) (err error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
		if err != nil {
			err = fmt.Errorf("%s: %w", sink.Name(), err)
			f.metrics.Notifications.WithLabelValues(sink.Name(), "failed").Inc()
			f.logger.Warn("alert delivery failed",
				"sink", sink.Name(),
				"kind", event.Kind,
				"key", event.Key(),
				"error", err,
			)
			return
		}
		f.metrics.Notifications.WithLabelValues(sink.Name(), "sent").Inc()
		f.logger.Info("alert delivered", "sink", sink.Name(), "kind", event.Kind, "key", event.Key())
	}()

	return sink.Notify(ctx, event)
}
