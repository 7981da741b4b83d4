package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Quote represents a single price observation for a symbol
type Quote struct {
	Symbol     string          `json:"symbol"`      // Normalized uppercase ticker (e.g., "AAPL")
	Price      decimal.Decimal `json:"price"`       // Last observed price, always > 0
	ObservedAt time.Time       `json:"observed_at"` // When the price was fetched
}

// CompanyProfile holds the metadata returned by the profile lookup
type CompanyProfile struct {
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
	LogoURL string `json:"logo_url,omitempty"`
}

// NormalizeSymbol canonicalizes a ticker for use as a cache key
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Valid reports whether the quote satisfies the price invariant.
// Providers occasionally return 0 for halted or unknown instruments;
// those observations are discarded rather than cached.
func (q Quote) Valid() bool {
	return q.Symbol != "" && q.Price.IsPositive()
}
