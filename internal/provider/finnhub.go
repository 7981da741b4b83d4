package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"marketsim/internal/domain"

	"github.com/shopspring/decimal"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// finnhubQuote is the /quote response shape
type finnhubQuote struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	PercentChange float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
}

// finnhubProfile is the /stock/profile2 response shape
type finnhubProfile struct {
	Name     string `json:"name"`
	Ticker   string `json:"ticker"`
	Exchange string `json:"exchange"`
	Currency string `json:"currency"`
	Logo     string `json:"logo"`
	WebURL   string `json:"weburl"`
}

// Finnhub is the primary real-time data provider. It also serves company
// profile lookups for the name resolver.
//
// Multiple API keys may be configured; on a 429 the client rotates to the
// next key so the backup key takes over once the cooldown window ends.
type Finnhub struct {
	baseURL string
	client  *http.Client

	mu     sync.Mutex
	keys   []string
	keyIdx int
}

// NewFinnhub creates a Finnhub client. Empty keys are dropped.
func NewFinnhub(keys ...string) *Finnhub {
	valid := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			valid = append(valid, k)
		}
	}
	return &Finnhub{
		baseURL: finnhubBaseURL,
		client:  newHTTPClient(),
		keys:    valid,
	}
}

// NewFinnhubWithBaseURL creates a client against a custom endpoint
func NewFinnhubWithBaseURL(baseURL string, keys ...string) *Finnhub {
	f := NewFinnhub(keys...)
	if baseURL != "" {
		f.baseURL = baseURL
	}
	return f
}

func (f *Finnhub) Name() string { return "finnhub" }

// Configured reports whether at least one API key is available
func (f *Finnhub) Configured() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.keys) > 0
}

func (f *Finnhub) currentKey() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.keys) == 0 {
		return ""
	}
	return f.keys[f.keyIdx%len(f.keys)]
}

func (f *Finnhub) rotateKey() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.keys) > 1 {
		f.keyIdx = (f.keyIdx + 1) % len(f.keys)
	}
}

// FetchPrice fetches the latest price from the /quote endpoint
func (f *Finnhub) FetchPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	key := f.currentKey()
	if key == "" {
		return decimal.Zero, fmt.Errorf("%w: finnhub key not configured", domain.ErrNoData)
	}

	endpoint := fmt.Sprintf("%s/quote?symbol=%s&token=%s", f.baseURL, url.QueryEscape(symbol), key)
	body, err := getJSON(ctx, f.client, f.Name(), endpoint, nil)
	if err != nil {
		if _, limited := domain.IsRateLimited(err); limited {
			f.rotateKey()
		}
		return decimal.Zero, err
	}

	var q finnhubQuote
	if err := json.Unmarshal(body, &q); err != nil {
		return decimal.Zero, domain.NewTransportError("decode", err)
	}

	if q.Current <= 0 {
		return decimal.Zero, domain.ErrNoData
	}
	return decimal.NewFromFloat(q.Current), nil
}

// FetchProfile fetches the company name and logo URL from /stock/profile2
func (f *Finnhub) FetchProfile(ctx context.Context, symbol string) (string, string, error) {
	key := f.currentKey()
	if key == "" {
		return "", "", fmt.Errorf("%w: finnhub key not configured", domain.ErrNoData)
	}

	endpoint := fmt.Sprintf("%s/stock/profile2?symbol=%s&token=%s", f.baseURL, url.QueryEscape(symbol), key)
	body, err := getJSON(ctx, f.client, f.Name(), endpoint, nil)
	if err != nil {
		if _, limited := domain.IsRateLimited(err); limited {
			f.rotateKey()
		}
		return "", "", err
	}

	var p finnhubProfile
	if err := json.Unmarshal(body, &p); err != nil {
		return "", "", domain.NewTransportError("decode", err)
	}

	if p.Name == "" {
		return "", "", domain.ErrNoData
	}
	return p.Name, p.Logo, nil
}
