package scheduler

import (
	"context"
	"time"

	"github.com/couchcryptid/flood-monitor-service/internal/domain"
)

// DailyRollup computes the summary of one civil day.
type DailyRollup interface {
	ComputeDailySummary(ctx context.Context, date domain.CivilDate) (domain.DailySummary, error)
}

// Purger deletes readings older than a horizon.
type Purger interface {
	PurgeOlderThan(ctx context.Context, horizon time.Duration) (int64, error)
}

// RollupJob summarizes the civil day before the one on which it fires.
func RollupJob(at domain.TimeOfDay, rollup DailyRollup, loc *time.Location) Job {
	return Job{
		Name: "rollup",
		At:   at,
		Run: func(ctx context.Context, firedAt time.Time) error {
			_, err := rollup.ComputeDailySummary(ctx, TargetDate(firedAt, loc))
			return err
		},
	}
}

// CleanupJob purges readings older than horizon.
func CleanupJob(at domain.TimeOfDay, purger Purger, horizon time.Duration) Job {
	return Job{
		Name: "cleanup",
		At:   at,
		Run: func(ctx context.Context, _ time.Time) error {
			_, err := purger.PurgeOlderThan(ctx, horizon)
			return err
		},
	}
}

// TargetDate is "yesterday" in loc relative to t.
func TargetDate(t time.Time, loc *time.Location) domain.CivilDate {
	return domain.DateOf(t, loc).AddDays(-1)
}
