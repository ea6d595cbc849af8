// Package integrations provides the shared HTTP client used by API
// integrations.
//
// # Overview
//
// The Spotify client lives in its own subpackage:
//
//   - [spotify]: Spotify Web API and Accounts service
//
// # Shared Infrastructure
//
// [Client] wraps an [http.Client] with:
//   - Response caching via [cache.Cache], keyed through a [cache.Keyer]
//   - Retry with exponential backoff for network errors, 5xx and 429
//     responses (Retry-After is honoured)
//   - Client-side rate limiting ([WithRateLimit])
//   - A circuit breaker that opens after consecutive upstream failures
//     ([WithCircuitBreaker])
//   - Bearer authentication from a [TokenFunc] ([WithAuth])
//
// HTTP status codes map to sentinel errors ([ErrNotFound],
// [ErrUnauthorized], [ErrRateLimited], ...) that callers check with
// [errors.Is].
//
// [spotify]: github.com/matzehuels/setlistgen/pkg/integrations/spotify
// [cache.Cache]: github.com/matzehuels/setlistgen/pkg/cache.Cache
// [cache.Keyer]: github.com/matzehuels/setlistgen/pkg/cache.Keyer
package integrations
