package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNormalizeSymbol(t *testing.T) {
	cases := map[string]string{
		"aapl":   "AAPL",
		" msft ": "MSFT",
		"TSLA":   "TSLA",
		"brk.b":  "BRK.B",
	}
	for in, want := range cases {
		if got := NormalizeSymbol(in); got != want {
			t.Errorf("NormalizeSymbol(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestQuote_Valid(t *testing.T) {
	now := time.Now()

	q := Quote{Symbol: "AAPL", Price: decimal.NewFromFloat(191.23), ObservedAt: now}
	if !q.Valid() {
		t.Error("positive price should be valid")
	}

	zero := Quote{Symbol: "AAPL", Price: decimal.Zero, ObservedAt: now}
	if zero.Valid() {
		t.Error("zero price should be invalid")
	}

	negative := Quote{Symbol: "AAPL", Price: decimal.NewFromInt(-5), ObservedAt: now}
	if negative.Valid() {
		t.Error("negative price should be invalid")
	}

	unnamed := Quote{Price: decimal.NewFromInt(10), ObservedAt: now}
	if unnamed.Valid() {
		t.Error("empty symbol should be invalid")
	}
}
