package cache

import (
	"sort"
	"sync"
	"time"
)

// Entry wraps a cached value with its observation time. ObservedAt drives
// both TTL freshness and eviction ranking.
type Entry[V any] struct {
	Value      V
	ObservedAt time.Time
}

// TTLCache is a time-bounded, size-bounded in-memory cache keyed by symbol.
//
// Freshness is checked on read; expired entries stay in the map until a
// capacity sweep removes them, so stale values remain reachable through
// GetStale as a degraded fallback. When the entry count exceeds maxSize,
// the oldest entries (by last-write time) are dropped until the cache is
// back at 80% of capacity. This is approximate LRU: reads do not refresh
// an entry's rank, only writes do. It bounds memory on small hosts without
// a full linked-list LRU.
type TTLCache[V any] struct {
	mu      sync.RWMutex
	items   map[string]Entry[V]
	ttl     time.Duration
	maxSize int

	now func() time.Time
}

// New creates a TTLCache. ttl <= 0 means entries never count as fresh;
// maxSize <= 0 disables the capacity bound.
func New[V any](ttl time.Duration, maxSize int) *TTLCache[V] {
	return &TTLCache[V]{
		items:   make(map[string]Entry[V]),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// SetNowFunc overrides the clock. Test hook only.
func (c *TTLCache[V]) SetNowFunc(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Get returns the value for key if a fresh entry exists. Pure map lookup,
// never triggers I/O.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || c.now().Sub(e.ObservedAt) >= c.ttl {
		var zero V
		return zero, false
	}
	return e.Value, true
}

// GetStale returns the value for key regardless of freshness, along with
// its observation time. Used for degraded fallback when no provider answers.
func (c *TTLCache[V]) GetStale(key string) (V, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok {
		var zero V
		return zero, time.Time{}, false
	}
	return e.Value, e.ObservedAt, true
}

// Put stores value under key with the current time. Last write wins.
func (c *TTLCache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = Entry[V]{Value: value, ObservedAt: c.now()}
	c.evictLocked()
}

// PutAt stores value with an explicit observation time. Used when warming
// the cache from persisted records whose timestamps predate this process.
func (c *TTLCache[V]) PutAt(key string, value V, observedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = Entry[V]{Value: value, ObservedAt: observedAt}
	c.evictLocked()
}

// evictLocked removes the oldest entries when over capacity, keeping the
// cache near 80% of maxSize. Must be called with the lock held.
func (c *TTLCache[V]) evictLocked() {
	if c.maxSize <= 0 || len(c.items) <= c.maxSize {
		return
	}

	type aged struct {
		key        string
		observedAt time.Time
	}
	all := make([]aged, 0, len(c.items))
	for k, e := range c.items {
		all = append(all, aged{key: k, observedAt: e.ObservedAt})
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].observedAt.Before(all[j].observedAt)
	})

	keep := c.maxSize * 8 / 10
	for _, a := range all[:len(all)-keep] {
		delete(c.items, a.key)
	}
}

// Len returns the number of entries, fresh or not.
func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Snapshot returns a copy of all entries. Used by the shutdown flush.
func (c *TTLCache[V]) Snapshot() map[string]Entry[V] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]Entry[V], len(c.items))
	for k, e := range c.items {
		out[k] = e
	}
	return out
}

// Clear removes all entries
func (c *TTLCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]Entry[V])
}
