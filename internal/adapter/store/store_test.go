package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flood-monitor-service/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func jakarta(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	return loc
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("sqlite", ":memory:", jakarta(t), discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func reading(id string, right, left float64, at time.Time) domain.Reading {
	return domain.Reading{ID: id, RightLevel: right, LeftLevel: left, RightFlow: 80, LeftFlow: 75, CapturedAt: at}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("mongodb", "", time.UTC, discardLogger())
	require.Error(t, err)
}

func TestStore_CheckReadiness(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.CheckReadiness(context.Background()))
}

func TestStore_InsertAndLatest(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	loc := jakarta(t)
	base := time.Date(2024, 4, 26, 9, 0, 0, 0, loc)

	_, found, err := s.LatestReading(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.InsertReading(ctx, reading("a", 100, 90, base)))
	require.NoError(t, s.InsertReading(ctx, reading("b", 110, 95, base.Add(time.Minute))))
	require.NoError(t, s.InsertReading(ctx, reading("c", 120, 99, base.Add(2*time.Minute))))

	latest, found, err := s.LatestReading(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "c", latest.ID)
	assert.True(t, latest.CapturedAt.Equal(base.Add(2*time.Minute)))
	assert.Equal(t, loc, latest.CapturedAt.Location())

	recent, err := s.LatestReadings(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].ID)
	assert.Equal(t, "b", recent[1].ID)

	n, err := s.CountReadings(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestStore_InsertDuplicateIDFails(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	r := reading("dup", 100, 90, time.Now())

	require.NoError(t, s.InsertReading(ctx, r))
	err := s.InsertReading(ctx, r)
	require.Error(t, err)

	var storeErr *domain.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "insert reading", storeErr.Op)
}

func TestStore_ReadingsBetween_CivilDayWindow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	loc := jakarta(t)
	day := domain.CivilDate{Year: 2024, Month: time.April, Day: 26}
	start, end := day.Window(loc)

	// Inserted out of order; 23:59 the previous evening and 00:00 the next day
	// fall outside the window.
	require.NoError(t, s.InsertReading(ctx, reading("late", 130, 100, end.Add(-time.Second))))
	require.NoError(t, s.InsertReading(ctx, reading("before", 100, 100, start.Add(-time.Minute))))
	require.NoError(t, s.InsertReading(ctx, reading("first", 120, 100, start)))
	require.NoError(t, s.InsertReading(ctx, reading("after", 100, 100, end)))
	require.NoError(t, s.InsertReading(ctx, reading("mid", 200, 110, start.Add(12*time.Hour))))

	got, err := s.ReadingsBetween(ctx, start, end)
	require.NoError(t, err)

	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"first", "mid", "late"}, ids)
}

func TestStore_ReadingsSince(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Date(2024, 4, 26, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.InsertReading(ctx, reading("old", 100, 100, now.Add(-25*time.Hour))))
	require.NoError(t, s.InsertReading(ctx, reading("new", 100, 100, now.Add(-time.Hour))))

	got, err := s.ReadingsSince(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)
}

func TestStore_DeleteReadingsBefore_RetentionHorizon(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Date(2024, 4, 26, 1, 0, 0, 0, jakarta(t))
	horizon := 30 * 24 * time.Hour

	require.NoError(t, s.InsertReading(ctx, reading("31d", 100, 100, now.Add(-31*24*time.Hour))))
	require.NoError(t, s.InsertReading(ctx, reading("29d", 100, 100, now.Add(-29*24*time.Hour))))

	deleted, err := s.DeleteReadingsBefore(ctx, now.Add(-horizon))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, err := s.LatestReadings(ctx, 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "29d", remaining[0].ID)

	deleted, err = s.DeleteReadingsBefore(ctx, now.Add(-horizon))
	require.NoError(t, err)
	assert.Zero(t, deleted, "no matching rows is not an error")
}

func TestStore_UpsertDailySummary_Overwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	loc := jakarta(t)
	date := domain.CivilDate{Year: 2024, Month: time.April, Day: 26}

	first := domain.DailySummary{
		Date:        date,
		SampleCount: 0,
		Status:      domain.StatusSafe,
		LastStatus:  domain.StatusSafe,
		ComputedAt:  time.Date(2024, 4, 27, 0, 5, 0, 0, loc),
	}
	require.NoError(t, s.UpsertDailySummary(ctx, first))

	second := domain.DailySummary{
		Date:          date,
		AvgRightLevel: 160,
		AvgLeftLevel:  100,
		AvgRightFlow:  80,
		AvgLeftFlow:   75,
		SampleCount:   3,
		Status:        domain.StatusDanger,
		FloodFlag:     1,
		LastStatus:    domain.StatusDanger,
		LastFloodFlag: 1,
		ComputedAt:    time.Date(2024, 4, 27, 0, 10, 0, 0, loc),
	}
	require.NoError(t, s.UpsertDailySummary(ctx, second))

	total, adverse, err := s.CountSummaries(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total, "upsert must not duplicate the date")
	assert.Equal(t, int64(1), adverse)

	got, found, err := s.DailySummary(ctx, date)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 3, got.SampleCount)
	assert.Equal(t, domain.StatusDanger, got.Status)
	assert.Equal(t, 1, got.LastFloodFlag)
	assert.InDelta(t, 160, got.AvgRightLevel, 0)
	assert.True(t, got.ComputedAt.Equal(second.ComputedAt))
}

func TestStore_RecentSummaries(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	day := domain.CivilDate{Year: 2024, Month: time.April, Day: 24}

	for i, status := range []domain.Status{domain.StatusSafe, domain.StatusFlood, domain.StatusWatch} {
		require.NoError(t, s.UpsertDailySummary(ctx, domain.DailySummary{
			Date:       day.AddDays(i),
			Status:     status,
			LastStatus: status,
			FloodFlag:  status.FloodFlag(),
		}))
	}

	got, err := s.RecentSummaries(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-04-26", got[0].Date.String())
	assert.Equal(t, "2024-04-25", got[1].Date.String())

	_, found, err := s.DailySummary(ctx, day.AddDays(10))
	require.NoError(t, err)
	assert.False(t, found)
}
