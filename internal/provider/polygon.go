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

const polygonBaseURL = "https://api.polygon.io"

// polygonPrevResponse is the previous-day aggregate envelope
type polygonPrevResponse struct {
	Ticker  string `json:"ticker"`
	Status  string `json:"status"`
	Results []struct {
		Close  float64 `json:"c"`
		Open   float64 `json:"o"`
		High   float64 `json:"h"`
		Low    float64 `json:"l"`
		Volume float64 `json:"v"`
	} `json:"results"`
}

// Polygon serves the previous trading day's closing price. Less fresh than
// the primary but reliable as a free fallback tier.
type Polygon struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewPolygon creates a Polygon client
func NewPolygon(apiKey string) *Polygon {
	return &Polygon{baseURL: polygonBaseURL, apiKey: apiKey, client: newHTTPClient()}
}

// NewPolygonWithBaseURL creates a client against a custom endpoint
func NewPolygonWithBaseURL(baseURL, apiKey string) *Polygon {
	p := NewPolygon(apiKey)
	if baseURL != "" {
		p.baseURL = baseURL
	}
	return p
}

func (p *Polygon) Name() string { return "polygon" }

// Configured reports whether an API key is available
func (p *Polygon) Configured() bool { return p.apiKey != "" }

// FetchPrice fetches the previous-day close for a symbol
func (p *Polygon) FetchPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if p.apiKey == "" {
		return decimal.Zero, fmt.Errorf("%w: polygon key not configured", domain.ErrNoData)
	}

	endpoint := fmt.Sprintf("%s/v2/aggs/ticker/%s/prev?apikey=%s", p.baseURL, url.PathEscape(symbol), p.apiKey)
	body, err := getJSON(ctx, p.client, p.Name(), endpoint, nil)
	if err != nil {
		return decimal.Zero, err
	}

	var resp polygonPrevResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Zero, domain.NewTransportError("decode", err)
	}

	if len(resp.Results) == 0 || resp.Results[0].Close <= 0 {
		return decimal.Zero, domain.ErrNoData
	}
	return decimal.NewFromFloat(resp.Results[0].Close), nil
}
