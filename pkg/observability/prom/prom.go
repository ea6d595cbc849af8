// Package prom implements the observability hooks with Prometheus metrics.
//
// Register the hooks once at startup and expose the registry via promhttp:
//
//	reg := prometheus.NewRegistry()
//	defer observability.Register(prom.New(reg))()
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/setlistgen/pkg/observability"
)

const namespace = "setlistgen"

var breakerStates = []string{"closed", "half-open", "open"}

// Hooks records pipeline, cache and HTTP events as Prometheus metrics.
type Hooks struct {
	loads          *prometheus.CounterVec
	loadDuration   prometheus.Histogram
	loadTracks     prometheus.Histogram
	generates      *prometheus.CounterVec
	genDuration    prometheus.Histogram
	setlistLength  prometheus.Histogram
	exports        *prometheus.CounterVec
	cacheOps       *prometheus.CounterVec
	cacheBytes     *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	httpErrors     *prometheus.CounterVec
	breakerState   *prometheus.GaugeVec
	breakerChanges *prometheus.CounterVec
}

// New creates hooks whose collectors are registered with reg.
func New(reg prometheus.Registerer) *Hooks {
	f := promauto.With(reg)
	return &Hooks{
		loads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playlist_loads_total",
			Help:      "Playlist loads by result.",
		}, []string{"result"}),
		loadDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "playlist_load_duration_seconds",
			Help:      "Time spent loading a playlist with features and genres.",
			Buckets:   prometheus.DefBuckets,
		}),
		loadTracks: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "playlist_tracks",
			Help:      "Number of usable tracks per loaded playlist.",
			Buckets:   prometheus.ExponentialBuckets(10, 2, 8),
		}),
		generates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "setlists_generated_total",
			Help:      "Setlist generations by result.",
		}, []string{"result"}),
		genDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "setlist_generate_duration_seconds",
			Help:      "Time spent generating a setlist.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5},
		}),
		setlistLength: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "setlist_length",
			Help:      "Number of tracks per generated setlist.",
			Buckets:   prometheus.LinearBuckets(5, 5, 10),
		}),
		exports: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "setlist_exports_total",
			Help:      "Setlist exports by format and result.",
		}, []string{"format", "result"}),
		cacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache operations by key type and outcome.",
		}, []string{"key_type", "op"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache by key type.",
		}, []string{"key_type"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream HTTP responses by host and status code.",
		}, []string{"method", "host", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "host"}),
		httpErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_errors_total",
			Help:      "Upstream HTTP transport failures.",
		}, []string{"method", "host"}),
		breakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state by name (active state=1; others 0).",
		}, []string{"name", "state"}),
		breakerChanges: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_transitions_total",
			Help:      "Circuit breaker state transitions.",
		}, []string{"name", "to"}),
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (h *Hooks) OnLoadStart(context.Context, string) {}

func (h *Hooks) OnLoadComplete(_ context.Context, _ string, trackCount int, d time.Duration, err error) {
	h.loads.WithLabelValues(result(err)).Inc()
	h.loadDuration.Observe(d.Seconds())
	if err == nil {
		h.loadTracks.Observe(float64(trackCount))
	}
}

func (h *Hooks) OnGenerateStart(context.Context, string, int) {}

func (h *Hooks) OnGenerateComplete(_ context.Context, _ string, setlistLen int, d time.Duration, err error) {
	h.generates.WithLabelValues(result(err)).Inc()
	h.genDuration.Observe(d.Seconds())
	if err == nil {
		h.setlistLength.Observe(float64(setlistLen))
	}
}

func (h *Hooks) OnExport(_ context.Context, format string, _ int, err error) {
	h.exports.WithLabelValues(format, result(err)).Inc()
}

func (h *Hooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (h *Hooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (h *Hooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheOps.WithLabelValues(keyType, "set").Inc()
	h.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (h *Hooks) OnRequest(context.Context, string, string, string) {}

func (h *Hooks) OnResponse(_ context.Context, method, host, _ string, statusCode int, d time.Duration) {
	h.httpRequests.WithLabelValues(method, host, strconv.Itoa(statusCode)).Inc()
	h.httpDuration.WithLabelValues(method, host).Observe(d.Seconds())
}

func (h *Hooks) OnError(_ context.Context, method, host, _ string, _ error) {
	h.httpErrors.WithLabelValues(method, host).Inc()
}

// OnBreakerStateChange sets the active state gauge to 1 and the others to 0.
func (h *Hooks) OnBreakerStateChange(name, _, to string) {
	for _, s := range breakerStates {
		v := 0.0
		if s == to {
			v = 1.0
		}
		h.breakerState.WithLabelValues(name, s).Set(v)
	}
	h.breakerChanges.WithLabelValues(name, to).Inc()
}

var (
	_ observability.PipelineHooks = (*Hooks)(nil)
	_ observability.CacheHooks    = (*Hooks)(nil)
	_ observability.HTTPHooks     = (*Hooks)(nil)
)
