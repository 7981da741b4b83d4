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

const yahooBaseURL = "https://query1.finance.yahoo.com/v7/finance"

// yahooQuoteResponse is the v7 quote envelope
type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol             string  `json:"symbol"`
			RegularMarketPrice float64 `json:"regularMarketPrice"`
			Currency           string  `json:"currency"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteResponse"`
}

// Yahoo is the keyless free fallback provider
type Yahoo struct {
	baseURL string
	client  *http.Client
}

// NewYahoo creates a Yahoo Finance client
func NewYahoo() *Yahoo {
	return &Yahoo{baseURL: yahooBaseURL, client: newHTTPClient()}
}

// NewYahooWithBaseURL creates a client against a custom endpoint
func NewYahooWithBaseURL(baseURL string) *Yahoo {
	y := NewYahoo()
	if baseURL != "" {
		y.baseURL = baseURL
	}
	return y
}

func (y *Yahoo) Name() string { return "yahoo" }

// FetchPrice fetches the regular market price for a symbol
func (y *Yahoo) FetchPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/quote?symbols=%s", y.baseURL, url.QueryEscape(symbol))
	body, err := getJSON(ctx, y.client, y.Name(), endpoint, nil)
	if err != nil {
		return decimal.Zero, err
	}

	var resp yahooQuoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Zero, domain.NewTransportError("decode", err)
	}

	results := resp.QuoteResponse.Result
	if len(results) == 0 || results[0].RegularMarketPrice <= 0 {
		return decimal.Zero, domain.ErrNoData
	}
	return decimal.NewFromFloat(results[0].RegularMarketPrice), nil
}
