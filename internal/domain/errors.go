package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoData is returned when a provider responded but had no usable
	// price for the symbol. Non-fatal: the resolver tries the next provider.
	ErrNoData = errors.New("no price data")

	// ErrPriceUnavailable is the terminal outcome when cache, all providers
	// and the persistent store fail to produce a price.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrConfigNotFound is returned when the configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)

// RateLimitError signals that a provider explicitly throttled us (HTTP 429).
// It must stay distinguishable from plain no-data failures so the governor
// can apply the cooldown to the right provider.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited, retry after %s", e.Provider, e.RetryAfter)
}

// IsRateLimited checks whether err carries a rate-limit signal and returns
// the advised cooldown if so.
func IsRateLimited(err error) (time.Duration, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl.RetryAfter, true
	}
	return 0, false
}

// TransportError represents a timeout, connection failure or malformed
// response. Treated as no-data for cascade purposes: no backoff is applied.
type TransportError struct {
	Op  string // Operation that failed (e.g., "get", "decode")
	Err error  // Underlying error
}

func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a transport-level provider error
func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}
