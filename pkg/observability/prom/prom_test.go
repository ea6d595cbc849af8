package prom

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPipelineMetrics(t *testing.T) {
	h := New(prometheus.NewRegistry())
	ctx := context.Background()

	h.OnLoadComplete(ctx, "p1", 40, time.Second, nil)
	h.OnLoadComplete(ctx, "p1", 0, time.Second, errors.New("boom"))
	h.OnGenerateComplete(ctx, "p1", 30, time.Millisecond, nil)
	h.OnExport(ctx, "svg", 100, nil)

	if got := testutil.ToFloat64(h.loads.WithLabelValues("ok")); got != 1 {
		t.Errorf("loads{ok} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(h.loads.WithLabelValues("error")); got != 1 {
		t.Errorf("loads{error} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(h.generates.WithLabelValues("ok")); got != 1 {
		t.Errorf("generates{ok} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(h.exports.WithLabelValues("svg", "ok")); got != 1 {
		t.Errorf("exports{svg,ok} = %v, want 1", got)
	}
}

func TestCacheMetrics(t *testing.T) {
	h := New(prometheus.NewRegistry())
	ctx := context.Background()

	h.OnCacheHit(ctx, "playlist")
	h.OnCacheMiss(ctx, "playlist")
	h.OnCacheMiss(ctx, "playlist")
	h.OnCacheSet(ctx, "http", 512)

	if got := testutil.ToFloat64(h.cacheOps.WithLabelValues("playlist", "miss")); got != 2 {
		t.Errorf("cache miss = %v, want 2", got)
	}
	if got := testutil.ToFloat64(h.cacheBytes.WithLabelValues("http")); got != 512 {
		t.Errorf("cache bytes = %v, want 512", got)
	}
}

func TestBreakerStateGauge(t *testing.T) {
	h := New(prometheus.NewRegistry())

	h.OnBreakerStateChange("spotify", "closed", "open")

	if got := testutil.ToFloat64(h.breakerState.WithLabelValues("spotify", "open")); got != 1 {
		t.Errorf("open gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(h.breakerState.WithLabelValues("spotify", "closed")); got != 0 {
		t.Errorf("closed gauge = %v, want 0", got)
	}
}

func TestRegistryExposure(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := New(reg)
	h.OnResponse(context.Background(), "GET", "api.spotify.com", "/v1/me", 200, time.Millisecond)

	srv := httptest.NewServer(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `setlistgen_upstream_requests_total{code="200",host="api.spotify.com",method="GET"} 1`) {
		t.Error("upstream request counter missing from exposition")
	}
}
