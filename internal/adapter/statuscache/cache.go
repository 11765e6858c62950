// Package statuscache keeps the latest verdict so the current-status report
// does not have to reclassify on every request. Redis backs it when
// configured; otherwise an in-process cache is used.
package statuscache

import (
	"context"
	"sync"
	"time"

	"github.com/couchcryptid/flood-monitor-service/internal/domain"
)

// Memory is an in-process status cache with a fixed TTL.
type Memory struct {
	ttl time.Duration

	mu        sync.RWMutex
	entry     domain.CurrentStatus
	expiresAt time.Time
	set       bool
}

// NewMemory creates an empty in-process cache.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl}
}

// Get returns the cached status unless it is missing or expired.
func (m *Memory) Get(_ context.Context) (domain.CurrentStatus, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.set || !domain.Now().Before(m.expiresAt) {
		return domain.CurrentStatus{}, false, nil
	}
	return m.entry, true, nil
}

// Set replaces the cached status. An older status never replaces a newer,
// unexpired one.
func (m *Memory) Set(_ context.Context, status domain.CurrentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := domain.Now()
	if m.set && now.Before(m.expiresAt) && status.Reading.CapturedAt.Before(m.entry.Reading.CapturedAt) {
		return nil
	}
	m.entry = status
	m.expiresAt = now.Add(m.ttl)
	m.set = true
	return nil
}
