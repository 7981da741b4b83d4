package ratelimit

import (
	"sync"
	"time"
)

// DefaultCooldown is applied when a provider rate-limits us without an
// explicit Retry-After hint.
const DefaultCooldown = 60 * time.Second

// Governor tracks per-provider cooldown windows and enforces a global
// minimum interval between outbound provider requests.
//
// Cooldowns are advisory, not punitive: once a window expires the provider
// is eligible again on the next resolution attempt. There is no exponential
// growth and no permanent denylisting. One provider's cooldown never affects
// another's eligibility.
type Governor struct {
	mu          sync.Mutex
	minInterval time.Duration
	lastRequest time.Time
	cooldowns   map[string]time.Time // provider name -> cooldownUntil

	now func() time.Time
}

// NewGovernor creates a Governor with the given global minimum interval
func NewGovernor(minInterval time.Duration) *Governor {
	return &Governor{
		minInterval: minInterval,
		cooldowns:   make(map[string]time.Time),
		now:         time.Now,
	}
}

// SetNowFunc overrides the clock. Test hook only.
func (g *Governor) SetNowFunc(now func() time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.now = now
}

// MinIntervalElapsed reports whether enough time has passed since the last
// recorded outbound request to allow contacting any provider.
func (g *Governor) MinIntervalElapsed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.minInterval <= 0 {
		return true
	}
	return g.now().Sub(g.lastRequest) >= g.minInterval
}

// MarkRequest records that an outbound cascade is starting. Called once per
// resolution attempt, covering the whole cascade rather than each provider.
func (g *Governor) MarkRequest() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastRequest = g.now()
}

// CanCall reports whether the named provider is outside its cooldown window
func (g *Governor) CanCall(provider string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	until, ok := g.cooldowns[provider]
	if !ok {
		return true
	}
	return !g.now().Before(until)
}

// RecordThrottled puts the named provider into a cooldown window. A
// non-positive retryAfter falls back to DefaultCooldown.
func (g *Governor) RecordThrottled(provider string, retryAfter time.Duration) {
	if retryAfter <= 0 {
		retryAfter = DefaultCooldown
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.cooldowns[provider] = g.now().Add(retryAfter)
}

// CooldownRemaining returns how long the named provider stays throttled.
// Zero means the provider is eligible.
func (g *Governor) CooldownRemaining(provider string) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	until, ok := g.cooldowns[provider]
	if !ok {
		return 0
	}
	if remaining := until.Sub(g.now()); remaining > 0 {
		return remaining
	}
	return 0
}
