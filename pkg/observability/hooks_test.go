package observability

import (
	"context"
	"sync"
	"testing"
	"time"
)

// recorder counts the events it receives.
type recorder struct {
	noop
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) OnLoadStart(context.Context, string)     { r.add("load") }
func (r *recorder) OnCacheHit(context.Context, string)      { r.add("hit") }
func (r *recorder) OnBreakerStateChange(_, _, to string) { r.add("breaker:" + to) }

// pipelineOnly implements PipelineHooks but not the other interfaces.
type pipelineOnly struct{ PipelineHooks }

func TestDefaultsAreNoop(t *testing.T) {
	Reset()
	ctx := context.Background()
	Pipeline().OnLoadComplete(ctx, "37i9dQZF1DXcBWIGoYBM5M", 50, time.Second, nil)
	Cache().OnCacheSet(ctx, "playlist", 1024)
	HTTP().OnResponse(ctx, "GET", "api.spotify.com", "/v1/audio-features", 200, time.Second)

	if Pipeline() != PipelineHooks(Noop) || Cache() != CacheHooks(Noop) || HTTP() != HTTPHooks(Noop) {
		t.Error("defaults are not the no-op hooks")
	}
}

func TestRegister(t *testing.T) {
	rec := &recorder{}
	restore := Register(rec)

	ctx := context.Background()
	Pipeline().OnLoadStart(ctx, "p")
	Cache().OnCacheHit(ctx, "playlist")
	HTTP().OnBreakerStateChange("spotify", "closed", "open")

	want := []string{"load", "hit", "breaker:open"}
	if len(rec.events) != len(want) {
		t.Fatalf("events = %v, want %v", rec.events, want)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, rec.events[i], want[i])
		}
	}

	restore()
	Pipeline().OnLoadStart(ctx, "p")
	if len(rec.events) != len(want) {
		t.Error("hooks still installed after restore")
	}
}

func TestRegisterPartial(t *testing.T) {
	defer Reset()
	rec := &recorder{}
	Register(pipelineOnly{rec})

	if _, ok := Pipeline().(pipelineOnly); !ok {
		t.Errorf("Pipeline() = %T, want pipelineOnly", Pipeline())
	}
	if Cache() != CacheHooks(Noop) {
		t.Errorf("Cache() = %T, want no-op", Cache())
	}
}

func TestSetNilIgnored(t *testing.T) {
	defer Reset()
	rec := &recorder{}
	SetPipelineHooks(rec)
	SetPipelineHooks(nil)
	SetCacheHooks(nil)
	SetHTTPHooks(nil)
	if Pipeline() != PipelineHooks(rec) {
		t.Error("SetPipelineHooks(nil) replaced the installed hooks")
	}
}

func TestConcurrentAccess(t *testing.T) {
	defer Reset()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				Register(&recorder{})
			} else {
				Pipeline().OnExport(context.Background(), "txt", 10, nil)
			}
		}()
	}
	wg.Wait()
}
