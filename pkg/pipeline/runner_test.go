package pipeline

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/setlistgen/pkg/cache"
	"github.com/matzehuels/setlistgen/pkg/errors"
	"github.com/matzehuels/setlistgen/pkg/integrations/spotify"
	"github.com/matzehuels/setlistgen/pkg/setlist"
)

const testPlaylistID = "37i9dQZF1DXcBWIGoYBM5M"

type fakeSource struct {
	mu       sync.Mutex
	snapshot string
	tracks   []spotify.Track
	features map[string]*spotify.AudioFeatures
	artists  map[string]*spotify.Artist
	err      error

	trackCalls atomic.Int32
	gotRefresh []bool
}

func (f *fakeSource) Playlist(_ context.Context, id string) (*spotify.Playlist, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &spotify.Playlist{
		ID:         id,
		Name:       "Warmup",
		SnapshotID: f.snapshot,
		Owner:      spotify.User{ID: "dj", DisplayName: "DJ Test"},
	}, nil
}

func (f *fakeSource) PlaylistTracks(context.Context, string) ([]spotify.Track, error) {
	f.trackCalls.Add(1)
	return f.tracks, nil
}

func (f *fakeSource) AudioFeatures(_ context.Context, ids []string, refresh bool) (map[string]*spotify.AudioFeatures, error) {
	f.mu.Lock()
	f.gotRefresh = append(f.gotRefresh, refresh)
	f.mu.Unlock()
	out := make(map[string]*spotify.AudioFeatures)
	for _, id := range ids {
		if af, ok := f.features[id]; ok {
			out[id] = af
		}
	}
	return out, nil
}

func (f *fakeSource) Artists(_ context.Context, ids []string, _ bool) (map[string]*spotify.Artist, error) {
	out := make(map[string]*spotify.Artist)
	for _, id := range ids {
		if a, ok := f.artists[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		snapshot: "snap1",
		tracks: []spotify.Track{
			{ID: "t1", Name: "Strobe", URI: "spotify:track:t1", Artists: []spotify.SimpleArtist{{ID: "a1", Name: "deadmau5"}}},
			{ID: "t2", Name: "Opus", URI: "spotify:track:t2", Artists: []spotify.SimpleArtist{{ID: "a2", Name: "Eric Prydz"}}},
			{ID: "t3", Name: "Nofeatures", URI: "spotify:track:t3", Artists: []spotify.SimpleArtist{{ID: "a2", Name: "Eric Prydz"}}},
		},
		features: map[string]*spotify.AudioFeatures{
			"t1": {ID: "t1", Tempo: 128, Key: 0, Mode: 1, Valence: 0.3},
			"t2": {ID: "t2", Tempo: 126, Key: 0, Mode: 1, Valence: 0.4},
		},
		artists: map[string]*spotify.Artist{
			"a1": {ID: "a1", Name: "deadmau5", Genres: []string{"progressive house"}},
			"a2": {ID: "a2", Name: "Eric Prydz", Genres: []string{"progressive house", "edm"}},
		},
	}
}

func newTestRunner(t *testing.T, src Source) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(src, c, nil, log.New(io.Discard))
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, nil, nil, nil)
	if r.Cache == nil || r.Keyer == nil || r.Logger == nil {
		t.Fatalf("NewRunner left nil defaults: %+v", r)
	}
}

func TestLoad(t *testing.T) {
	src := newFakeSource()
	r := newTestRunner(t, src)
	ctx := context.Background()

	pl, hit, err := r.LoadWithCacheInfo(ctx, "https://open.spotify.com/playlist/"+testPlaylistID+"?si=abc", false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if hit {
		t.Error("first load reported a cache hit")
	}
	if pl.ID != testPlaylistID || pl.Name != "Warmup" || pl.Owner != "DJ Test" {
		t.Errorf("metadata = %q %q %q", pl.ID, pl.Name, pl.Owner)
	}
	if pl.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", pl.Skipped)
	}

	var names []string
	for _, tr := range pl.Tracks {
		names = append(names, tr.Name)
	}
	if diff := cmp.Diff([]string{"Strobe", "Opus"}, names); diff != "" {
		t.Errorf("tracks mismatch (-want +got):\n%s", diff)
	}
	if got := pl.Tracks[1].Artists[0].Genres; !cmp.Equal(got, []string{"progressive house", "edm"}) {
		t.Errorf("genres = %v", got)
	}
	if pl.Tracks[0].Camelot.String() != "8B" {
		t.Errorf("key = %s, want 8B", pl.Tracks[0].Camelot)
	}
}

func TestLoadCachesPerSnapshot(t *testing.T) {
	src := newFakeSource()
	r := newTestRunner(t, src)
	ctx := context.Background()

	if _, err := r.Load(ctx, testPlaylistID, false); err != nil {
		t.Fatal(err)
	}
	_, hit, err := r.LoadWithCacheInfo(ctx, testPlaylistID, false)
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Error("second load missed the cache")
	}
	if n := src.trackCalls.Load(); n != 1 {
		t.Errorf("PlaylistTracks called %d times, want 1", n)
	}

	src.snapshot = "snap2"
	if _, hit, _ = r.LoadWithCacheInfo(ctx, testPlaylistID, false); hit {
		t.Error("changed snapshot served from cache")
	}

	if _, hit, _ = r.LoadWithCacheInfo(ctx, testPlaylistID, true); hit {
		t.Error("refresh served from cache")
	}
	if last := src.gotRefresh[len(src.gotRefresh)-1]; !last {
		t.Error("refresh not passed to AudioFeatures")
	}
}

func TestLoadErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		ref   string
		setup func(*fakeSource)
		code  errors.Code
	}{
		{"bad ref", "spotify:track:abc", nil, errors.ErrCodeInvalidPlaylist},
		{"empty playlist", testPlaylistID, func(f *fakeSource) { f.tracks = nil }, errors.ErrCodeInvalidPlaylist},
		{"no features", testPlaylistID, func(f *fakeSource) { f.features = nil }, errors.ErrCodeInvalidPlaylist},
		{"not found", testPlaylistID, func(f *fakeSource) {
			f.err = errors.New(errors.ErrCodePlaylistNotFound, "gone")
		}, errors.ErrCodePlaylistNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFakeSource()
			if tt.setup != nil {
				tt.setup(src)
			}
			_, err := newTestRunner(t, src).Load(ctx, tt.ref, false)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	src := newFakeSource()
	r := newTestRunner(t, src)
	ctx := context.Background()

	pl, err := r.Load(ctx, testPlaylistID, false)
	if err != nil {
		t.Fatal(err)
	}
	s, stats, err := r.Generate(ctx, pl, setlist.Options{Start: "strobe", Seed: 7})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if s.Name != "Warmup" || s.PlaylistID != testPlaylistID {
		t.Errorf("setlist metadata = %q %q", s.Name, s.PlaylistID)
	}
	if s.Len() != 2 || s.Tracks[0].Name != "Strobe" {
		t.Errorf("setlist = %v", s.Lines())
	}
	if stats.PoolSize != 2 || stats.SetlistSize != 2 {
		t.Errorf("stats = %+v", stats)
	}

	cached, err := r.Setlist(ctx, s.ID)
	if err != nil {
		t.Fatalf("Setlist: %v", err)
	}
	if cached.ID != s.ID || cached.Len() != s.Len() {
		t.Errorf("cached setlist = %+v", cached)
	}
}

func TestGenerateErrors(t *testing.T) {
	r := newTestRunner(t, newFakeSource())
	ctx := context.Background()
	pl, err := r.Load(ctx, testPlaylistID, false)
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := r.Generate(ctx, pl, setlist.Options{Start: "nothing like this"}); !errors.Is(err, errors.ErrCodeTrackNotFound) {
		t.Errorf("unknown start: err = %v", err)
	}
	if _, _, err := r.Generate(ctx, pl, setlist.Options{Start: "bad\x00query"}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("control chars: err = %v", err)
	}
	if _, err := r.Setlist(ctx, "missing"); !errors.Is(err, errors.ErrCodeSetlistNotFound) {
		t.Errorf("missing setlist: err = %v", err)
	}
}

func TestGenerateStats(t *testing.T) {
	r := newTestRunner(t, newFakeSource())
	ctx := context.Background()

	for _, wantHit := range []bool{false, true} {
		pl, err := r.Load(ctx, testPlaylistID, false)
		if err != nil {
			t.Fatal(err)
		}
		_, stats, err := r.Generate(ctx, pl, setlist.Options{Seed: 1})
		if err != nil {
			t.Fatal(err)
		}
		if stats.CacheHit != wantHit {
			t.Errorf("CacheHit = %v, want %v", stats.CacheHit, wantHit)
		}
		if stats.LoadTime <= 0 || stats.LoadTime != pl.LoadTime {
			t.Errorf("LoadTime = %v, playlist load took %v", stats.LoadTime, pl.LoadTime)
		}
	}
}

func TestGenerateStartID(t *testing.T) {
	long := strings.Repeat("x", 300)
	src := newFakeSource()
	src.tracks = []spotify.Track{
		{ID: "t1", Name: "Strobe", Artists: []spotify.SimpleArtist{{ID: "a1", Name: "deadmau5"}, {ID: "a3", Name: "Kaskade"}}},
		{ID: "t2", Name: "Strobe", Artists: []spotify.SimpleArtist{{ID: "a1", Name: "deadmau5"}}},
		{ID: "t3", Name: long, Artists: []spotify.SimpleArtist{{ID: "a1", Name: "deadmau5"}}},
	}
	src.features = map[string]*spotify.AudioFeatures{
		"t1": {ID: "t1", Tempo: 128, Key: 0, Mode: 1},
		"t2": {ID: "t2", Tempo: 128, Key: 0, Mode: 1},
		"t3": {ID: "t3", Tempo: 128, Key: 0, Mode: 1},
	}
	r := newTestRunner(t, src)
	ctx := context.Background()
	pl, err := r.Load(ctx, testPlaylistID, false)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		opts setlist.Options
		want string
	}{
		{"overlapping label", setlist.Options{StartID: "t2", Start: pl.Tracks[1].Label()}, "t2"},
		{"superset label", setlist.Options{StartID: "t1"}, "t1"},
		{"long label", setlist.Options{StartID: "t3"}, "t3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, err := r.Generate(ctx, pl, tt.opts)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if got := s.Tracks[0].ID; got != tt.want {
				t.Errorf("opener = %s, want %s", got, tt.want)
			}
		})
	}
}
