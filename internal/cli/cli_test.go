package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flood-monitor-service/internal/domain"
	"github.com/couchcryptid/flood-monitor-service/internal/observability"
)

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", filepath.Join(t.TempDir(), "floodmon.db"))
	t.Setenv("TIMEZONE", "Asia/Jakarta")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("PREDICTOR_URL", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_ENABLED", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("REDIS_ADDR", "")
}

func freezeClock(t *testing.T, at time.Time) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand(observability.NewMetricsForTesting)
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSeedThenRollup(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "seed", "--date", "2024-04-25", "--count", "48", "--peak", "170")
	require.NoError(t, err)
	assert.Contains(t, out, "stored 48 readings for 2024-04-25")

	out, err = run(t, "rollup", "--date", "2024-04-25")
	require.NoError(t, err)

	var summary domain.DailySummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, domain.CivilDate{Year: 2024, Month: time.April, Day: 25}, summary.Date)
	assert.Equal(t, 48, summary.SampleCount)
	assert.Equal(t, domain.StatusFlood, summary.Status)
	assert.Equal(t, 1, summary.FloodFlag)
}

func TestRollupDefaultsToYesterday(t *testing.T) {
	setupEnv(t)
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	freezeClock(t, time.Date(2024, 4, 26, 0, 30, 0, 0, loc))

	out, err := run(t, "rollup")
	require.NoError(t, err)

	var summary domain.DailySummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, domain.CivilDate{Year: 2024, Month: time.April, Day: 25}, summary.Date)
	assert.Equal(t, 0, summary.SampleCount)
	assert.Equal(t, domain.StatusSafe, summary.Status)
}

func TestRollupRejectsBadDate(t *testing.T) {
	setupEnv(t)
	_, err := run(t, "rollup", "--date", "25/04/2024")
	require.Error(t, err)
}

func TestPurgeDeletesOnlyExpiredReadings(t *testing.T) {
	setupEnv(t)
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	freezeClock(t, time.Date(2024, 5, 10, 1, 0, 0, 0, loc))

	_, err = run(t, "seed", "--date", "2024-04-25", "--count", "12")
	require.NoError(t, err)
	_, err = run(t, "seed", "--count", "6")
	require.NoError(t, err)

	out, err := run(t, "purge", "--days", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted 12 readings older than 10 days")

	out, err = run(t, "purge", "--days", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted 0 readings")
}

func TestPurgeRejectsNonPositiveDays(t *testing.T) {
	setupEnv(t)
	_, err := run(t, "purge", "--days", "0")
	require.Error(t, err)
}

func TestInvalidConfigAbortsCommand(t *testing.T) {
	setupEnv(t)
	t.Setenv("TIMEZONE", "Mars/Olympus_Mons")
	_, err := run(t, "purge")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TIMEZONE")
}

func TestSyntheticDay(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	date := domain.CivilDate{Year: 2024, Month: time.April, Day: 25}
	from, to := date.Window(loc)

	readings := syntheticDay(date, loc, 24, 175)

	require.Len(t, readings, 24)
	peak := 0.0
	for i, r := range readings {
		assert.False(t, r.CapturedAt.Before(from))
		assert.True(t, r.CapturedAt.Before(to))
		if i > 0 {
			assert.True(t, r.CapturedAt.After(readings[i-1].CapturedAt))
		}
		assert.NotEmpty(t, r.ID)
		peak = max(peak, r.RightLevel)
	}
	assert.LessOrEqual(t, peak, 175.0)
	assert.Greater(t, peak, 150.0)
	assert.Equal(t, from.Add(30*time.Minute), readings[0].CapturedAt)
}
