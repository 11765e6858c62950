package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/flood-monitor-service/internal/domain"
	"github.com/couchcryptid/flood-monitor-service/internal/observability"
)

// Sweeper deletes raw readings that have aged past the retention horizon.
type Sweeper struct {
	store   ReadingPurger
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewSweeper creates a Sweeper.
func NewSweeper(store ReadingPurger, metrics *observability.Metrics, logger *slog.Logger) *Sweeper {
	return &Sweeper{store: store, metrics: metrics, logger: logger}
}

// PurgeOlderThan deletes readings captured strictly before now minus horizon
// and returns how many were removed. Store errors are returned, never swallowed.
func (s *Sweeper) PurgeOlderThan(ctx context.Context, horizon time.Duration) (int64, error) {
	if horizon <= 0 {
		return 0, fmt.Errorf("retention horizon must be positive, got %s", horizon)
	}

	cutoff := domain.Now().Add(-horizon)
	deleted, err := s.store.DeleteReadingsBefore(context.WithoutCancel(ctx), cutoff)
	if err != nil {
		return 0, err
	}

	s.metrics.ReadingsPurged.Add(float64(deleted))
	s.logger.Info("old readings purged", "cutoff", cutoff, "deleted", deleted)
	return deleted, nil
}
