package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flood-monitor-service/internal/domain"
	"github.com/couchcryptid/flood-monitor-service/internal/observability"
)

// --- mocks ---

// memStore is an in-memory store honoring the same contracts as the gorm store.
type memStore struct {
	mu          sync.Mutex
	readings    []domain.Reading
	summaries   map[domain.CivilDate]domain.DailySummary
	insertCalls int
	upsertCalls int
	insertErr   error
	queryErr    error
	deleteErr   error
}

func newMemStore() *memStore {
	return &memStore{summaries: make(map[domain.CivilDate]domain.DailySummary)}
}

func (m *memStore) InsertReading(ctx context.Context, r domain.Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertCalls++
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.insertErr != nil {
		return &domain.StoreError{Op: "insert reading", Err: m.insertErr}
	}
	m.readings = append(m.readings, r)
	return nil
}

func (m *memStore) ReadingsBetween(_ context.Context, from, to time.Time) ([]domain.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.queryErr != nil {
		return nil, &domain.StoreError{Op: "query readings", Err: m.queryErr}
	}
	var out []domain.Reading
	for _, r := range m.readings {
		if !r.CapturedAt.Before(from) && r.CapturedAt.Before(to) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CapturedAt.Before(out[j].CapturedAt) })
	return out, nil
}

func (m *memStore) LatestReading(_ context.Context) (domain.Reading, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.queryErr != nil {
		return domain.Reading{}, false, &domain.StoreError{Op: "query latest reading", Err: m.queryErr}
	}
	if len(m.readings) == 0 {
		return domain.Reading{}, false, nil
	}
	latest := m.readings[0]
	for _, r := range m.readings[1:] {
		if r.CapturedAt.After(latest.CapturedAt) {
			latest = r
		}
	}
	return latest, true, nil
}

func (m *memStore) DeleteReadingsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return 0, &domain.StoreError{Op: "delete readings", Err: m.deleteErr}
	}
	kept := m.readings[:0]
	var deleted int64
	for _, r := range m.readings {
		if r.CapturedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	m.readings = kept
	return deleted, nil
}

func (m *memStore) UpsertDailySummary(_ context.Context, s domain.DailySummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertCalls++
	m.summaries[s.Date] = s
	return nil
}

func (m *memStore) add(rs ...domain.Reading) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readings = append(m.readings, rs...)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.AlertEvent
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, e domain.AlertEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

type mockPredictor struct {
	mu     sync.Mutex
	calls  int
	result domain.Prediction
	err    error
	block  bool
}

func (m *mockPredictor) Predict(ctx context.Context, _ domain.Reading) (domain.Prediction, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.block {
		<-ctx.Done()
		return domain.Prediction{}, ctx.Err()
	}
	return m.result, m.err
}

func (m *mockPredictor) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var errUnreachable = errors.New("dial tcp 127.0.0.1:8000: connection refused")

// --- helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func jakarta(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	return loc
}

// freezeClock pins domain.Now to at for the duration of the test.
func freezeClock(t *testing.T, at time.Time) *clockwork.FakeClock {
	t.Helper()
	clk := clockwork.NewFakeClockAt(at)
	domain.SetClock(clk)
	t.Cleanup(func() { domain.SetClock(nil) })
	return clk
}
