package pipeline

import (
	"context"
	"time"

	"github.com/couchcryptid/flood-monitor-service/internal/domain"
)

// ReadingWriter persists new readings.
type ReadingWriter interface {
	InsertReading(ctx context.Context, r domain.Reading) error
}

// ReadingRangeReader returns readings captured in [from, to), oldest first.
type ReadingRangeReader interface {
	ReadingsBetween(ctx context.Context, from, to time.Time) ([]domain.Reading, error)
}

// LatestReadingReader returns the most recent stored reading, if any.
type LatestReadingReader interface {
	LatestReading(ctx context.Context) (domain.Reading, bool, error)
}

// ReadingPurger deletes readings captured strictly before cutoff.
type ReadingPurger interface {
	DeleteReadingsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SummaryWriter upserts a daily summary keyed by its date.
type SummaryWriter interface {
	UpsertDailySummary(ctx context.Context, s domain.DailySummary) error
}

// Notifier delivers alert events. Callers treat failures as best-effort.
type Notifier interface {
	Notify(ctx context.Context, event domain.AlertEvent) error
}

// Classifier produces a verdict for a reading. It never fails.
type Classifier interface {
	Classify(ctx context.Context, r domain.Reading) domain.Verdict
}

// StatusCache holds the most recent verdict.
type StatusCache interface {
	Get(ctx context.Context) (domain.CurrentStatus, bool, error)
	Set(ctx context.Context, status domain.CurrentStatus) error
}
