package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestIsRateLimited(t *testing.T) {
	err := &RateLimitError{Provider: "finnhub", RetryAfter: 30 * time.Second}

	wait, ok := IsRateLimited(err)
	if !ok {
		t.Fatal("expected rate-limit error to be detected")
	}
	if wait != 30*time.Second {
		t.Errorf("expected 30s retry-after, got %v", wait)
	}
}

func TestIsRateLimited_Wrapped(t *testing.T) {
	inner := &RateLimitError{Provider: "finnhub", RetryAfter: time.Minute}
	wrapped := fmt.Errorf("fetch AAPL: %w", inner)

	wait, ok := IsRateLimited(wrapped)
	if !ok {
		t.Fatal("expected wrapped rate-limit error to be detected")
	}
	if wait != time.Minute {
		t.Errorf("expected 1m retry-after, got %v", wait)
	}
}

func TestIsRateLimited_PlainError(t *testing.T) {
	if _, ok := IsRateLimited(errors.New("boom")); ok {
		t.Error("plain error should not be rate limited")
	}
	if _, ok := IsRateLimited(ErrNoData); ok {
		t.Error("no-data should not be rate limited")
	}
}

func TestTransportError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := NewTransportError("get", inner)

	if !errors.Is(err, inner) {
		t.Error("expected transport error to unwrap to the inner error")
	}
	if err.Error() != "get: connection refused" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}
