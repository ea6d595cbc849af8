// Package observability lets setlistgen report load, generate, cache and
// Spotify HTTP events without depending on a metrics backend.
//
// Libraries emit events through the accessors:
//
//	observability.Pipeline().OnLoadStart(ctx, playlistID)
//	observability.HTTP().OnResponse(ctx, "GET", "api.spotify.com", "/v1/audio-features", 200, d)
//
// The binary installs an implementation once at startup, typically the
// Prometheus one in package prom:
//
//	restore := observability.Register(prom.New(reg))
//	defer restore()
//
// Until then every accessor returns a no-op.
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// PipelineHooks receives playlist load, setlist generation and export events.
type PipelineHooks interface {
	OnLoadStart(ctx context.Context, playlistID string)
	OnLoadComplete(ctx context.Context, playlistID string, trackCount int, duration time.Duration, err error)
	OnGenerateStart(ctx context.Context, playlistID string, poolSize int)
	OnGenerateComplete(ctx context.Context, playlistID string, setlistLen int, duration time.Duration, err error)
	OnExport(ctx context.Context, format string, size int, err error)
}

// CacheHooks receives cache lookups and writes. keyType is the key
// namespace ("http", "playlist", "setlist").
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives outgoing API calls and circuit breaker transitions.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)
	// OnError reports transport failures; HTTP error statuses go to OnResponse.
	OnError(ctx context.Context, method, host, path string, err error)
	OnBreakerStateChange(name, from, to string)
}

type noop struct{}

func (noop) OnLoadStart(context.Context, string)                                     {}
func (noop) OnLoadComplete(context.Context, string, int, time.Duration, error)       {}
func (noop) OnGenerateStart(context.Context, string, int)                            {}
func (noop) OnGenerateComplete(context.Context, string, int, time.Duration, error)   {}
func (noop) OnExport(context.Context, string, int, error)                            {}
func (noop) OnCacheHit(context.Context, string)                                      {}
func (noop) OnCacheMiss(context.Context, string)                                     {}
func (noop) OnCacheSet(context.Context, string, int)                                 {}
func (noop) OnRequest(context.Context, string, string, string)                       {}
func (noop) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (noop) OnError(context.Context, string, string, string, error)                  {}
func (noop) OnBreakerStateChange(string, string, string)                             {}

// Noop implements every hook interface and does nothing.
var Noop = noop{}

// holder lets atomic.Value store interface values of differing dynamic types.
type holder[T any] struct{ h T }

var (
	pipelineHooks atomic.Value // holder[PipelineHooks]
	cacheHooks    atomic.Value // holder[CacheHooks]
	httpHooks     atomic.Value // holder[HTTPHooks]
)

func init() { Reset() }

// SetPipelineHooks installs h. nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	if h != nil {
		pipelineHooks.Store(holder[PipelineHooks]{h})
	}
}

// SetCacheHooks installs h. nil is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		cacheHooks.Store(holder[CacheHooks]{h})
	}
}

// SetHTTPHooks installs h. nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		httpHooks.Store(holder[HTTPHooks]{h})
	}
}

// Register installs h for every hook interface it implements and returns
// a function that restores the no-op hooks.
func Register(h any) (restore func()) {
	if p, ok := h.(PipelineHooks); ok {
		SetPipelineHooks(p)
	}
	if c, ok := h.(CacheHooks); ok {
		SetCacheHooks(c)
	}
	if x, ok := h.(HTTPHooks); ok {
		SetHTTPHooks(x)
	}
	return Reset
}

// Pipeline returns the installed pipeline hooks.
func Pipeline() PipelineHooks { return pipelineHooks.Load().(holder[PipelineHooks]).h }

// Cache returns the installed cache hooks.
func Cache() CacheHooks { return cacheHooks.Load().(holder[CacheHooks]).h }

// HTTP returns the installed HTTP hooks.
func HTTP() HTTPHooks { return httpHooks.Load().(holder[HTTPHooks]).h }

// Reset restores the no-op hooks.
func Reset() {
	pipelineHooks.Store(holder[PipelineHooks]{Noop})
	cacheHooks.Store(holder[CacheHooks]{Noop})
	httpHooks.Store(holder[HTTPHooks]{Noop})
}
