package statuscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/couchcryptid/flood-monitor-service/internal/domain"
)

const (
	currentStatusKey   = "floodmon:current-status"
	currentCapturedKey = "floodmon:current-status:captured-at"
)

// setIfNewer writes the status only when its capture time is not older than
// the stored one. Capture times are zero-padded nanosecond strings so they
// compare lexically. ARGV[3] is the TTL in milliseconds; 0 means no expiry.
var setIfNewer = redis.NewScript(`
local stored = redis.call("GET", KEYS[2])
if stored and stored > ARGV[2] then
	return 0
end
local ttl = tonumber(ARGV[3])
if ttl > 0 then
	redis.call("SET", KEYS[1], ARGV[1], "PX", ttl)
	redis.call("SET", KEYS[2], ARGV[2], "PX", ttl)
else
	redis.call("SET", KEYS[1], ARGV[1])
	redis.call("SET", KEYS[2], ARGV[2])
end
return 1
`)

// Redis stores the current status as JSON under a single key with a TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to addr and verifies the connection with a ping.
func NewRedis(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return newRedis(client, ttl), nil
}

func newRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Get returns the cached status. A missing key is a miss, not an error.
func (r *Redis) Get(ctx context.Context) (domain.CurrentStatus, bool, error) {
	data, err := r.client.Get(ctx, currentStatusKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.CurrentStatus{}, false, nil
	}
	if err != nil {
		return domain.CurrentStatus{}, false, fmt.Errorf("redis get: %w", err)
	}

	var status domain.CurrentStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return domain.CurrentStatus{}, false, fmt.Errorf("decode cached status: %w", err)
	}
	return status, true, nil
}

// Set replaces the cached status and refreshes the TTL. An older status never
// replaces a newer one; the comparison runs server-side so concurrent writers
// cannot interleave.
func (r *Redis) Set(ctx context.Context, status domain.CurrentStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	keys := []string{currentStatusKey, currentCapturedKey}
	err = setIfNewer.Run(ctx, r.client, keys, data, capturedScore(status.Reading.CapturedAt), r.ttl.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func capturedScore(t time.Time) string {
	if t.Before(time.Unix(0, 0)) {
		return fmt.Sprintf("%020d", 0)
	}
	return fmt.Sprintf("%020d", t.UnixNano())
}

// CheckReadiness pings the Redis server.
func (r *Redis) CheckReadiness(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
