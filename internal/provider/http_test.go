package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketsim/internal/domain"
)

func TestGetJSON_RefusesNonJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>maintenance page</html>"))
	}))
	defer server.Close()

	_, err := getJSON(context.Background(), server.Client(), "test", server.URL, nil)

	var te *domain.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected transport error for non-JSON body, got %v", err)
	}
}

func TestGetJSON_ServerErrorIsNoData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := getJSON(context.Background(), server.Client(), "test", server.URL, nil)
	if !errors.Is(err, domain.ErrNoData) {
		t.Fatalf("expected ErrNoData for 5xx, got %v", err)
	}
	if _, limited := domain.IsRateLimited(err); limited {
		t.Error("5xx must not be classified as rate limited")
	}
}

func TestGetJSON_RateLimitWithoutHint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := getJSON(context.Background(), server.Client(), "test", server.URL, nil)

	wait, limited := domain.IsRateLimited(err)
	if !limited {
		t.Fatalf("expected rate-limit error, got %v", err)
	}
	if wait != 0 {
		t.Errorf("expected zero retry-after without a header hint, got %v", wait)
	}
}

func TestGetJSON_ConnectionFailure(t *testing.T) {
	// Closed server: the connection is refused immediately
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := getJSON(context.Background(), newHTTPClient(), "test", url, nil)

	var te *domain.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected transport error for refused connection, got %v", err)
	}
}

func TestRetryAfterFrom(t *testing.T) {
	h := http.Header{}
	if got := retryAfterFrom(h); got != 0 {
		t.Errorf("expected 0 without headers, got %v", got)
	}

	h.Set("Retry-After", "45")
	if got := retryAfterFrom(h); got != 45*time.Second {
		t.Errorf("expected 45s, got %v", got)
	}

	h = http.Header{}
	h.Set("X-RateLimit-Reset", "12.5")
	if got := retryAfterFrom(h); got != 12500*time.Millisecond {
		t.Errorf("expected 12.5s, got %v", got)
	}

	h = http.Header{}
	h.Set("Retry-After", "garbage")
	if got := retryAfterFrom(h); got != 0 {
		t.Errorf("expected 0 for unparsable header, got %v", got)
	}
}
