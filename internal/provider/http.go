package provider

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"marketsim/internal/domain"
)

// requestTimeout bounds every provider call so a hung upstream degrades a
// single resolution instead of blocking the process.
const requestTimeout = 10 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

// getJSON issues one GET and returns the body after validating the status
// and content type. Errors follow the provider taxonomy: a 429 becomes a
// *domain.RateLimitError carrying the Retry-After hint, a non-JSON body or
// transport failure becomes a *domain.TransportError, and any other non-200
// status maps to domain.ErrNoData.
func getJSON(ctx context.Context, client *http.Client, providerName, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.NewTransportError("request", err)
	}

	req.Header.Set("User-Agent", DefaultUserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, domain.NewTransportError("get", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &domain.RateLimitError{
			Provider:   providerName,
			RetryAfter: retryAfterFrom(resp.Header),
		}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", domain.ErrNoData, resp.StatusCode)
	}

	// Refuse to parse non-JSON as JSON; some upstreams serve HTML error
	// pages with a 200 status.
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return nil, domain.NewTransportError("content-type", fmt.Errorf("unexpected content type %q", resp.Header.Get("Content-Type")))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewTransportError("read", err)
	}
	return body, nil
}

// retryAfterFrom extracts the advised cooldown from throttle headers.
// Zero means no hint; the governor substitutes its default window.
func retryAfterFrom(h http.Header) time.Duration {
	for _, key := range []string{"Retry-After", "X-RateLimit-Reset"} {
		if v := h.Get(key); v != "" {
			if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
				return time.Duration(secs * float64(time.Second))
			}
		}
	}
	return 0
}
