package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"marketsim/internal/domain"

	"github.com/shopspring/decimal"
)

const alpacaBaseURL = "https://paper-api.alpaca.markets/v2"

// alpacaQuoteResponse is the latest-quote envelope
type alpacaQuoteResponse struct {
	Symbol string `json:"symbol"`
	Quote  struct {
		BidPrice float64 `json:"bp"`
		AskPrice float64 `json:"ap"`
		BidSize  int     `json:"bs"`
		AskSize  int     `json:"as"`
	} `json:"quote"`
}

// Alpaca reports the bid/ask midpoint as the current price. Requires both
// a key ID and a secret, sent as headers rather than query parameters.
type Alpaca struct {
	baseURL   string
	apiKey    string
	secretKey string
	client    *http.Client
}

// NewAlpaca creates an Alpaca client
func NewAlpaca(apiKey, secretKey string) *Alpaca {
	return &Alpaca{baseURL: alpacaBaseURL, apiKey: apiKey, secretKey: secretKey, client: newHTTPClient()}
}

// NewAlpacaWithBaseURL creates a client against a custom endpoint
func NewAlpacaWithBaseURL(baseURL, apiKey, secretKey string) *Alpaca {
	a := NewAlpaca(apiKey, secretKey)
	if baseURL != "" {
		a.baseURL = baseURL
	}
	return a
}

func (a *Alpaca) Name() string { return "alpaca" }

// Configured reports whether both credentials are available
func (a *Alpaca) Configured() bool { return a.apiKey != "" && a.secretKey != "" }

// FetchPrice fetches the latest quote and returns the bid/ask midpoint
func (a *Alpaca) FetchPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if !a.Configured() {
		return decimal.Zero, fmt.Errorf("%w: alpaca credentials not configured", domain.ErrNoData)
	}

	endpoint := fmt.Sprintf("%s/stocks/%s/quotes/latest", a.baseURL, url.PathEscape(symbol))
	headers := map[string]string{
		"APCA-API-KEY-ID":     a.apiKey,
		"APCA-API-SECRET-KEY": a.secretKey,
	}
	body, err := getJSON(ctx, a.client, a.Name(), endpoint, headers)
	if err != nil {
		return decimal.Zero, err
	}

	var resp alpacaQuoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Zero, domain.NewTransportError("decode", err)
	}

	bid := resp.Quote.BidPrice
	ask := resp.Quote.AskPrice
	if bid <= 0 || ask <= 0 {
		return decimal.Zero, domain.ErrNoData
	}

	mid := decimal.NewFromFloat(bid).Add(decimal.NewFromFloat(ask)).Div(decimal.NewFromInt(2))
	return mid, nil
}
