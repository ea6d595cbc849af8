package integrations

import (
	"errors"
	"net/http"
	"time"
)

const httpTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when a playlist, track or other resource doesn't exist.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")

	// ErrUnauthorized is returned for 401 responses (missing or expired token).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned for 403 responses (token lacks a scope).
	ErrForbidden = errors.New("forbidden")

	// ErrRateLimited is returned for 429 responses once retries are exhausted.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnavailable is returned without contacting the API while the
	// circuit breaker is open.
	ErrUnavailable = errors.New("service unavailable")

	// ErrBadRequest is returned for other 4xx responses.
	ErrBadRequest = errors.New("bad request")
)

// NewHTTPClient creates an HTTP client with a standard timeout for API requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}
