//go:build integration

package statuscache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/couchcryptid/flood-monitor-service/internal/domain"
)

func startRedis(ctx context.Context, t *testing.T, ttl time.Duration) *Redis {
	t.Helper()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start redis container")

	addr, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	r, err := NewRedis(ctx, addr, "", 0, ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRedis_Integration(t *testing.T) {
	ctx := context.Background()
	r := startRedis(ctx, t, time.Minute)
	base := time.Date(2024, 4, 26, 10, 0, 0, 0, time.UTC)

	reset := func(t *testing.T) {
		t.Helper()
		require.NoError(t, r.client.FlushDB(ctx).Err())
	}

	t.Run("miss when empty", func(t *testing.T) {
		reset(t)
		_, ok, err := r.Get(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set then get", func(t *testing.T) {
		reset(t)
		want := status("a", base, domain.StatusFlood)
		want.Verdict.Confidence = 87.5
		want.Reading.RightLevel = 151.5

		require.NoError(t, r.Set(ctx, want))

		got, ok, err := r.Get(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "a", got.Reading.ID)
		assert.Equal(t, domain.StatusFlood, got.Verdict.Status)
		assert.InDelta(t, 87.5, got.Verdict.Confidence, 1e-9)
		assert.InDelta(t, 151.5, got.Reading.RightLevel, 1e-9)
		assert.True(t, base.Equal(got.Reading.CapturedAt))
	})

	t.Run("set applies ttl to both keys", func(t *testing.T) {
		reset(t)
		require.NoError(t, r.Set(ctx, status("a", base, domain.StatusSafe)))

		for _, key := range []string{currentStatusKey, currentCapturedKey} {
			ttl, err := r.client.PTTL(ctx, key).Result()
			require.NoError(t, err)
			assert.Greater(t, ttl, time.Duration(0), key)
			assert.LessOrEqual(t, ttl, time.Minute, key)
		}
	})

	t.Run("decode error", func(t *testing.T) {
		reset(t)
		require.NoError(t, r.client.Set(ctx, currentStatusKey, "not json", time.Minute).Err())

		_, ok, err := r.Get(ctx)
		require.Error(t, err)
		assert.False(t, ok)
		assert.Contains(t, err.Error(), "decode cached status")
	})

	t.Run("older reading does not overwrite", func(t *testing.T) {
		reset(t)
		require.NoError(t, r.Set(ctx, status("new", base, domain.StatusDanger)))
		require.NoError(t, r.Set(ctx, status("old", base.Add(-time.Second), domain.StatusSafe)))

		got, ok, err := r.Get(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "new", got.Reading.ID)
		assert.Equal(t, domain.StatusDanger, got.Verdict.Status)
	})

	t.Run("newer or equal reading overwrites", func(t *testing.T) {
		reset(t)
		require.NoError(t, r.Set(ctx, status("first", base, domain.StatusDanger)))
		require.NoError(t, r.Set(ctx, status("same-time", base, domain.StatusWatch)))

		got, _, err := r.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "same-time", got.Reading.ID)

		require.NoError(t, r.Set(ctx, status("later", base.Add(time.Nanosecond), domain.StatusSafe)))
		got, _, err = r.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "later", got.Reading.ID)
		assert.Equal(t, domain.StatusSafe, got.Verdict.Status)
	})

	t.Run("concurrent writers keep the newest reading", func(t *testing.T) {
		reset(t)
		const writers = 20
		var wg sync.WaitGroup
		for i := writers - 1; i >= 0; i-- {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				s := status("r", base.Add(time.Duration(i)*time.Second), domain.StatusSafe)
				s.Reading.ID = s.Reading.CapturedAt.Format(time.RFC3339)
				assert.NoError(t, r.Set(ctx, s))
			}(i)
		}
		wg.Wait()

		got, ok, err := r.Get(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, base.Add((writers-1)*time.Second).Format(time.RFC3339), got.Reading.ID)
	})
}

func TestRedis_IntegrationExpires(t *testing.T) {
	ctx := context.Background()
	r := startRedis(ctx, t, 500*time.Millisecond)

	require.NoError(t, r.Set(ctx, status("a", time.Now(), domain.StatusWatch)))

	require.Eventually(t, func() bool {
		_, ok, err := r.Get(ctx)
		return err == nil && !ok
	}, 5*time.Second, 100*time.Millisecond)

	// Once expired, an older reading is accepted again.
	require.NoError(t, r.Set(ctx, status("b", time.Now().Add(-time.Hour), domain.StatusSafe)))
	got, ok, err := r.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", got.Reading.ID)
}
