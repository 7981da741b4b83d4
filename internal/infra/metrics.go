package infra

import (
	"sync/atomic"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Cache
	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64

	// Provider cascade
	providerCalls  atomic.Uint64
	providerErrors atomic.Uint64
	rateLimitHits  atomic.Uint64

	// Degraded outcomes
	staleFallbacks atomic.Uint64
	storeFallbacks atomic.Uint64
	unavailable    atomic.Uint64
}

// NewMetrics creates an empty metrics set
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordCacheHit records a fresh cache hit (no network I/O performed)
func (m *Metrics) RecordCacheHit() { m.cacheHits.Add(1) }

// RecordCacheMiss records a cache miss or expired entry
func (m *Metrics) RecordCacheMiss() { m.cacheMisses.Add(1) }

// RecordProviderCall records one outbound provider request
func (m *Metrics) RecordProviderCall() { m.providerCalls.Add(1) }

// RecordProviderError records a no-data or transport failure
func (m *Metrics) RecordProviderError() { m.providerErrors.Add(1) }

// RecordRateLimit records an explicit 429 from a provider
func (m *Metrics) RecordRateLimit() { m.rateLimitHits.Add(1) }

// RecordStaleFallback records a resolution served from an expired cache entry
func (m *Metrics) RecordStaleFallback() { m.staleFallbacks.Add(1) }

// RecordStoreFallback records a resolution served from the persistent store
func (m *Metrics) RecordStoreFallback() { m.storeFallbacks.Add(1) }

// RecordUnavailable records a terminal resolution failure
func (m *Metrics) RecordUnavailable() { m.unavailable.Add(1) }

// MetricsSnapshot is a point-in-time copy of all counters
type MetricsSnapshot struct {
	CacheHits      uint64 `json:"cache_hits"`
	CacheMisses    uint64 `json:"cache_misses"`
	ProviderCalls  uint64 `json:"provider_calls"`
	ProviderErrors uint64 `json:"provider_errors"`
	RateLimitHits  uint64 `json:"rate_limit_hits"`
	StaleFallbacks uint64 `json:"stale_fallbacks"`
	StoreFallbacks uint64 `json:"store_fallbacks"`
	Unavailable    uint64 `json:"unavailable"`
}

// Snapshot returns a consistent-enough view for logging and diagnostics
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		CacheHits:      m.cacheHits.Load(),
		CacheMisses:    m.cacheMisses.Load(),
		ProviderCalls:  m.providerCalls.Load(),
		ProviderErrors: m.providerErrors.Load(),
		RateLimitHits:  m.rateLimitHits.Load(),
		StaleFallbacks: m.staleFallbacks.Load(),
		StoreFallbacks: m.storeFallbacks.Load(),
		Unavailable:    m.unavailable.Load(),
	}
}
