package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/flood-monitor-service/internal/domain"
)

// Rollup computes and stores the summary of one civil day.
type Rollup struct {
	readings   ReadingRangeReader
	summaries  SummaryWriter
	notifier   Notifier
	thresholds domain.Thresholds
	loc        *time.Location
	logger     *slog.Logger
}

// NewRollup creates a Rollup. notifier may be nil.
func NewRollup(readings ReadingRangeReader, summaries SummaryWriter, notifier Notifier, thresholds domain.Thresholds, loc *time.Location, logger *slog.Logger) *Rollup {
	return &Rollup{
		readings:   readings,
		summaries:  summaries,
		notifier:   notifier,
		thresholds: thresholds,
		loc:        loc,
		logger:     logger,
	}
}

// ComputeDailySummary aggregates every reading captured on date (civil time),
// upserts the result and raises a daily alert when the day was adverse. A day
// without readings is recorded as an empty SAFE summary and never alerts.
// Running it twice for the same date and readings yields the same row apart
// from ComputedAt.
func (ru *Rollup) ComputeDailySummary(ctx context.Context, date domain.CivilDate) (domain.DailySummary, error) {
	ctx = context.WithoutCancel(ctx)
	from, to := date.Window(ru.loc)

	readings, err := ru.readings.ReadingsBetween(ctx, from, to)
	if err != nil {
		return domain.DailySummary{}, err
	}

	summary, stats := domain.Summarize(date, readings, ru.thresholds, domain.Now().In(ru.loc))
	if err := ru.summaries.UpsertDailySummary(ctx, summary); err != nil {
		return domain.DailySummary{}, err
	}

	ru.logger.Info("daily summary stored",
		"tanggal", date.String(),
		"count", summary.SampleCount,
		"status", summary.Status,
		"avg_h_kanan", summary.AvgRightLevel,
		"avg_h_kiri", summary.AvgLeftLevel,
		"flood_events", stats.FloodEvents,
	)

	if summary.SampleCount > 0 && summary.Status.IsAdverse() {
		ru.alert(ctx, summary, stats)
	}
	return summary, nil
}

func (ru *Rollup) alert(ctx context.Context, summary domain.DailySummary, stats domain.DayStats) {
	if ru.notifier == nil {
		return
	}
	event := domain.AlertEvent{
		Kind:      domain.AlertDaily,
		Summary:   &summary,
		Stats:     &stats,
		Verdict:   domain.DailyVerdict(summary, stats),
		Timestamp: domain.Now().In(ru.loc),
	}
	if err := ru.notifier.Notify(ctx, event); err != nil {
		ru.logger.Warn("daily alert not fully delivered", "tanggal", summary.Date.String(), "error", err)
	}
}
