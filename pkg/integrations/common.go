// Package integrations provides HTTP clients for the external services the
// audit engine depends on: the dependency-graph service, the vulnerability
// database, and the source-tree provider.
//
// The shared [Client] handles response caching, retry with backoff, and
// status-code mapping so the per-service clients stay thin.
package integrations

import (
	"errors"
	"net/http"
	"strconv"
	"time"
)

const httpTimeout = 30 * time.Second

var (
	// ErrNotFound is returned when a package or resource doesn't exist in
	// the remote service.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection
	// errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// NewHTTPClient creates an HTTP client with a standard timeout for
// external service requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// retryAfterSeconds parses a Retry-After header value, returning 0 when
// the header is absent or not a plain number of seconds.
func retryAfterSeconds(h http.Header) int {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
