// Package httputil provides shared HTTP plumbing for external service
// clients: retry with exponential backoff and jitter, and the
// [RetryableError] marker that distinguishes transient failures from
// permanent ones.
//
// Clients wrap transient failures (network errors, 5xx responses, 429s)
// in [RetryableError]; everything else fails fast. Rate-limited errors
// carrying a Retry-After hint extend the backoff accordingly.
package httputil
