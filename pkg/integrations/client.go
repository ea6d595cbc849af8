package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/matzehuels/setlistgen/pkg/cache"
	"github.com/matzehuels/setlistgen/pkg/httputil"
	"github.com/matzehuels/setlistgen/pkg/observability"
)

// TokenFunc returns the bearer token to send with a request.
type TokenFunc func(ctx context.Context) (string, error)

// Client provides shared HTTP functionality for API clients.
// It handles caching, retry logic, rate limiting, circuit breaking and
// common request headers.
type Client struct {
	http      *http.Client
	cache     cache.Cache
	keyer     cache.Keyer
	namespace string
	ttl       time.Duration
	headers   map[string]string
	auth      TokenFunc
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker[struct{}]
	attempts  int
	backoff   time.Duration
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithAuth sets a token source used for the Authorization header.
func WithAuth(fn TokenFunc) Option {
	return func(c *Client) { c.auth = fn }
}

// WithKeyer sets the keyer used to build cache keys.
// Use a [cache.ScopedKeyer] to isolate per-user responses.
func WithKeyer(k cache.Keyer) Option {
	return func(c *Client) { c.keyer = k }
}

// WithRateLimit limits outgoing requests to rps requests per second with
// the given burst. Requests wait for a token and honour ctx cancellation.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
		}
	}
}

// WithRetry sets the retry attempts and initial backoff.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.backoff = backoff
	}
}

// BreakerConfig configures the circuit breaker around upstream calls.
type BreakerConfig struct {
	Name             string
	FailureThreshold uint32        // consecutive failures before opening
	Timeout          time.Duration // time spent open before probing
	MaxRequests      uint32        // trial requests allowed while half-open
}

// WithCircuitBreaker wraps every request in a circuit breaker. Only
// network failures and 5xx responses count as failures; 4xx responses
// (including 429) leave the breaker closed.
func WithCircuitBreaker(cfg BreakerConfig) Option {
	return func(c *Client) {
		if cfg.FailureThreshold == 0 {
			cfg.FailureThreshold = 5
		}
		if cfg.Timeout == 0 {
			cfg.Timeout = 30 * time.Second
		}
		if cfg.MaxRequests == 0 {
			cfg.MaxRequests = 1
		}
		c.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        cfg.Name,
			MaxRequests: cfg.MaxRequests,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.FailureThreshold
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !errors.Is(err, ErrNetwork)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				observability.HTTP().OnBreakerStateChange(name, from.String(), to.String())
			},
		})
	}
}

// NewClient creates a Client with the given cache, namespace, TTL and
// default headers. Headers are applied to all requests made through this
// client. Pass nil for headers if no default headers are needed.
func NewClient(backend cache.Cache, namespace string, ttl time.Duration, headers map[string]string, opts ...Option) *Client {
	if backend == nil {
		backend = cache.NewNullCache()
	}
	c := &Client{
		http:      NewHTTPClient(),
		cache:     backend,
		keyer:     cache.NewDefaultKeyer(),
		namespace: namespace,
		ttl:       ttl,
		headers:   headers,
		attempts:  3,
		backoff:   time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BreakerState returns the circuit breaker state, or "disabled".
func (c *Client) BreakerState() string {
	if c.breaker == nil {
		return "disabled"
	}
	return c.breaker.State().String()
}

// Cached retrieves a value from cache or executes fetch and caches the result.
// If refresh is true, the cache is bypassed and fetch is always called.
// The fetch function should populate v; on success, v is stored in the cache.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	if !refresh {
		if ok, _ := c.Lookup(ctx, key, v); ok {
			return nil
		}
	}
	if err := fetch(); err != nil {
		return err
	}
	return c.Store(ctx, key, v)
}

// Lookup decodes a cached value into v. Decode failures count as misses.
func (c *Client) Lookup(ctx context.Context, key string, v any) (bool, error) {
	data, ok, err := c.cache.Get(ctx, c.keyer.HTTPKey(c.namespace, key))
	if err != nil || !ok {
		observability.Cache().OnCacheMiss(ctx, "http")
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		observability.Cache().OnCacheMiss(ctx, "http")
		return false, nil
	}
	observability.Cache().OnCacheHit(ctx, "http")
	return true, nil
}

// Store caches v under key. Cache write failures are ignored.
func (c *Client) Store(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if c.cache.Set(ctx, c.keyer.HTTPKey(c.namespace, key), data, c.ttl) == nil {
		observability.Cache().OnCacheSet(ctx, "http", len(data))
	}
	return nil
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
// It uses the client's default headers and handles retries automatically.
func (c *Client) Get(ctx context.Context, rawURL string, v any) error {
	return c.GetWithHeaders(ctx, rawURL, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
func (c *Client) GetWithHeaders(ctx context.Context, rawURL string, headers map[string]string, v any) error {
	return c.do(ctx, http.MethodGet, rawURL, nil, headers, v)
}

// PostForm sends a form-encoded POST and JSON-decodes the response into v.
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values, headers map[string]string, v any) error {
	h := map[string]string{"Content-Type": "application/x-www-form-urlencoded"}
	for k, val := range headers {
		h[k] = val
	}
	return c.do(ctx, http.MethodPost, rawURL, func() io.Reader { return strings.NewReader(form.Encode()) }, h, v)
}

func (c *Client) do(ctx context.Context, method, rawURL string, body func() io.Reader, headers map[string]string, v any) error {
	return httputil.Retry(ctx, c.attempts, c.backoff, func() error {
		var r io.Reader
		if body != nil {
			r = body()
		}
		if c.breaker == nil {
			return c.doOnce(ctx, method, rawURL, r, headers, v)
		}
		_, err := c.breaker.Execute(func() (struct{}, error) {
			return struct{}{}, c.doOnce(ctx, method, rawURL, r, headers, v)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return err
	})
}

func (c *Client) doOnce(ctx context.Context, method, rawURL string, body io.Reader, headers map[string]string, v any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	for k, val := range c.headers {
		req.Header.Set(k, val)
	}
	for k, val := range headers {
		req.Header.Set(k, val)
	}
	if c.auth != nil && req.Header.Get("Authorization") == "" {
		token, err := c.auth(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, method, host, path, err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp); err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// apiError is the error envelope used by the Spotify Web and Accounts APIs.
type apiError struct {
	Error json.RawMessage `json:"error"`
	Desc  string          `json:"error_description"`
}

func errorMessage(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, 4<<10))
	var env apiError
	if json.Unmarshal(data, &env) != nil || len(env.Error) == 0 {
		return ""
	}
	var nested struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(env.Error, &nested) == nil && nested.Message != "" {
		return nested.Message
	}
	var code string
	if json.Unmarshal(env.Error, &code) == nil {
		if env.Desc != "" {
			return code + ": " + env.Desc
		}
		return code
	}
	return ""
}

func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return nil
	}

	detail := fmt.Sprintf("status %d", code)
	if msg := errorMessage(resp.Body); msg != "" {
		detail += ": " + msg
	}

	switch {
	case code == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, detail)
	case code == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, detail)
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, detail)
	case code == http.StatusTooManyRequests:
		return &httputil.RetryableError{
			Err:   fmt.Errorf("%w: %s", ErrRateLimited, detail),
			After: httputil.ParseRetryAfter(resp.Header),
		}
	case code >= 500:
		return &httputil.RetryableError{Err: fmt.Errorf("%w: %s", ErrNetwork, detail)}
	default:
		return fmt.Errorf("%w: %s", ErrBadRequest, detail)
	}
}
