package provider

import (
	"context"

	"github.com/shopspring/decimal"
)

// DefaultUserAgent is a browser-like user agent string to avoid bot detection
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Provider is the uniform contract for upstream market-data sources.
//
// FetchPrice returns the current price for a normalized symbol. Failure modes
// are distinguishable through the error: domain.ErrNoData when the provider
// answered without a usable price, *domain.RateLimitError on an explicit 429,
// and *domain.TransportError for timeouts, connection failures and malformed
// bodies. One provider's failure state never affects another's.
type Provider interface {
	Name() string
	FetchPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// ProfileProvider resolves company metadata for a symbol
type ProfileProvider interface {
	Name() string
	FetchProfile(ctx context.Context, symbol string) (name, logoURL string, err error)
}
