package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketsim/internal/domain"

	"github.com/shopspring/decimal"
)

func TestYahoo_FetchPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbols"); got != "MSFT" {
			t.Errorf("expected symbols=MSFT, got %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"quoteResponse":{"result":[{"symbol":"MSFT","regularMarketPrice":415.5,"currency":"USD"}],"error":null}}`))
	}))
	defer server.Close()

	y := NewYahooWithBaseURL(server.URL)

	price, err := y.FetchPrice(context.Background(), "MSFT")
	if err != nil {
		t.Fatalf("FetchPrice failed: %v", err)
	}
	if !price.Equal(decimal.NewFromFloat(415.5)) {
		t.Errorf("expected 415.5, got %s", price)
	}
}

func TestYahoo_EmptyResultIsNoData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"quoteResponse":{"result":[],"error":null}}`))
	}))
	defer server.Close()

	y := NewYahooWithBaseURL(server.URL)

	_, err := y.FetchPrice(context.Background(), "NOPE")
	if !errors.Is(err, domain.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestPolygon_FetchPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("apikey"); got != "pk" {
			t.Errorf("expected apikey=pk, got %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ticker":"AAPL","status":"OK","results":[{"c":190.11,"o":189.2,"h":191.0,"l":188.7,"v":51230000}]}`))
	}))
	defer server.Close()

	p := NewPolygonWithBaseURL(server.URL, "pk")

	price, err := p.FetchPrice(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("FetchPrice failed: %v", err)
	}
	if !price.Equal(decimal.NewFromFloat(190.11)) {
		t.Errorf("expected 190.11, got %s", price)
	}
}

func TestPolygon_NoKeyIsNoData(t *testing.T) {
	p := NewPolygon("")
	if p.Configured() {
		t.Error("empty key should not count as configured")
	}

	_, err := p.FetchPrice(context.Background(), "AAPL")
	if !errors.Is(err, domain.ErrNoData) {
		t.Fatalf("expected ErrNoData without a key, got %v", err)
	}
}

func TestAlpaca_Midpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("APCA-API-KEY-ID"); got != "ak" {
			t.Errorf("expected key header ak, got %s", got)
		}
		if got := r.Header.Get("APCA-API-SECRET-KEY"); got != "sk" {
			t.Errorf("expected secret header sk, got %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"symbol":"AAPL","quote":{"bp":190.0,"ap":191.0,"bs":2,"as":3}}`))
	}))
	defer server.Close()

	a := NewAlpacaWithBaseURL(server.URL, "ak", "sk")

	price, err := a.FetchPrice(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("FetchPrice failed: %v", err)
	}
	if !price.Equal(decimal.NewFromFloat(190.5)) {
		t.Errorf("expected midpoint 190.5, got %s", price)
	}
}

func TestAlpaca_OneSidedQuoteIsNoData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"symbol":"AAPL","quote":{"bp":190.0,"ap":0}}`))
	}))
	defer server.Close()

	a := NewAlpacaWithBaseURL(server.URL, "ak", "sk")

	_, err := a.FetchPrice(context.Background(), "AAPL")
	if !errors.Is(err, domain.ErrNoData) {
		t.Fatalf("expected ErrNoData for one-sided quote, got %v", err)
	}
}
