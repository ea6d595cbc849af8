// Package httputil provides HTTP helpers shared by the Spotify client.
//
// # Retry
//
// [Retry] wraps an operation with automatic retry for transient failures.
// Only errors wrapped in [RetryableError] are retried:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// The delay doubles after each attempt. When a server sends Retry-After,
// the client records it in [RetryableError.After] and that delay is used
// instead (capped at [MaxRetryAfter]):
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return fetch(ctx)
//	})
//
// Default settings: 3 attempts, 1 second initial delay.
package httputil
