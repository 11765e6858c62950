package predictor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/couchcryptid/flood-monitor-service/internal/domain"
	"github.com/couchcryptid/flood-monitor-service/internal/observability"
)

// CachedPredictor wraps a Predictor with an in-memory LRU cache keyed by the
// reading's four fields rounded to two decimals. Entries expire after the TTL
// so a redeployed model is consulted again; a zero TTL never expires them.
type CachedPredictor struct {
	inner   domain.Predictor
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedPredictor creates a cache decorator around a predictor.
func NewCachedPredictor(inner domain.Predictor, maxEntries int, ttl time.Duration, metrics *observability.Metrics) *CachedPredictor {
	return &CachedPredictor{
		inner:   inner,
		cache:   newLRUCache(maxEntries, ttl),
		metrics: metrics,
	}
}

func (c *CachedPredictor) Predict(ctx context.Context, r domain.Reading) (domain.Prediction, error) {
	key := cacheKey(r)
	if p, ok := c.cache.get(key); ok {
		c.metrics.PredictorCache.WithLabelValues("hit").Inc()
		return p, nil
	}
	c.metrics.PredictorCache.WithLabelValues("miss").Inc()

	p, err := c.inner.Predict(ctx, r)
	if err != nil {
		// Failures are never cached so the next reading retries the service.
		return p, err
	}
	c.cache.put(key, p)
	return p, nil
}

func cacheKey(r domain.Reading) string {
	return fmt.Sprintf("%.2f|%.2f|%.2f|%.2f", r.RightLevel, r.LeftLevel, r.RightFlow, r.LeftFlow)
}

// lruCache is a simple thread-safe LRU cache for Predictions.
type lruCache struct {
	maxEntries int
	ttl        time.Duration
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key       string
	value     domain.Prediction
	expiresAt time.Time
	prev      *entry
	next      *entry
}

func newLRUCache(maxEntries int, ttl time.Duration) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		ttl:        ttl,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.Prediction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.Prediction{}, false
	}
	if c.expired(e) {
		c.remove(e)
		return domain.Prediction{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.Prediction) {
	if c.maxEntries <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = domain.Now().Add(c.ttl)
	}

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, expiresAt: expiresAt}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) expired(e *entry) bool {
	return !e.expiresAt.IsZero() && !domain.Now().Before(e.expiresAt)
}

func (c *lruCache) remove(e *entry) {
	delete(c.entries, e.key)
	c.unlink(e)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	c.remove(c.tail)
}
