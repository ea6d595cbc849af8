package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/setlistgen/pkg/cache"
	"github.com/matzehuels/setlistgen/pkg/errors"
	"github.com/matzehuels/setlistgen/pkg/integrations/spotify"
	"github.com/matzehuels/setlistgen/pkg/music"
	"github.com/matzehuels/setlistgen/pkg/observability"
	"github.com/matzehuels/setlistgen/pkg/setlist"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the source, cache and logger.
// Multiple goroutines can safely use the same Runner.
type Runner struct {
	Source Source
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner reading from src.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
func NewRunner(src Source, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Source: src,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Load is a convenience wrapper that calls LoadWithCacheInfo and discards the cache hit info.
func (r *Runner) Load(ctx context.Context, ref string, refresh bool) (*Playlist, error) {
	pl, _, err := r.LoadWithCacheInfo(ctx, ref, refresh)
	return pl, err
}

// LoadWithCacheInfo loads a playlist with tracks, audio features and
// genres, and reports whether it came from the cache.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, ref string, refresh bool) (pl *Playlist, hit bool, err error) {
	id, err := spotify.ParsePlaylistID(ref)
	if err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, id)
	start := time.Now()
	defer func() {
		n := 0
		if pl != nil {
			n = len(pl.Tracks)
		}
		hooks.OnLoadComplete(ctx, id, n, time.Since(start), err)
	}()

	meta, err := r.Source.Playlist(ctx, id)
	if err != nil {
		return nil, false, err
	}

	cacheKey := r.Keyer.PlaylistKey(id, cache.PlaylistKeyOpts{SnapshotID: meta.SnapshotID})
	if !refresh {
		if data, ok, err := r.Cache.Get(ctx, cacheKey); err == nil && ok {
			var cached Playlist
			if json.Unmarshal(data, &cached) == nil {
				observability.Cache().OnCacheHit(ctx, "playlist")
				r.Logger.Debug("playlist cache hit", "playlist", id, "tracks", len(cached.Tracks))
				cached.FromCache = true
				cached.LoadTime = time.Since(start)
				return &cached, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "playlist")
	}

	pl, err = r.fetch(ctx, meta, refresh)
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(pl); err == nil {
		if r.Cache.Set(ctx, cacheKey, data, cache.TTLPlaylist) == nil {
			observability.Cache().OnCacheSet(ctx, "playlist", len(data))
		}
	}

	pl.LoadTime = time.Since(start)
	r.Logger.Info("loaded playlist",
		"playlist", pl.Name,
		"tracks", len(pl.Tracks),
		"skipped", pl.Skipped,
		"duration", pl.LoadTime)
	return pl, false, nil
}

// maxConcurrentFetches bounds parallel feature/artist requests.
const maxConcurrentFetches = 2

func (r *Runner) fetch(ctx context.Context, meta *spotify.Playlist, refresh bool) (*Playlist, error) {
	items, err := r.Source.PlaylistTracks(ctx, meta.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidPlaylist, "playlist %q has no tracks", meta.Name)
	}

	trackIDs := make([]string, 0, len(items))
	var artistIDs []string
	for _, t := range items {
		trackIDs = append(trackIDs, t.ID)
		for _, a := range t.Artists {
			if a.ID != "" {
				artistIDs = append(artistIDs, a.ID)
			}
		}
	}

	var (
		features map[string]*spotify.AudioFeatures
		artists  map[string]*spotify.Artist
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	g.Go(func() error {
		var err error
		features, err = r.Source.AudioFeatures(gctx, trackIDs, refresh)
		return err
	})
	g.Go(func() error {
		var err error
		artists, err = r.Source.Artists(gctx, artistIDs, refresh)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pl := &Playlist{
		ID:         meta.ID,
		Name:       meta.Name,
		Owner:      meta.Owner.Name(),
		SnapshotID: meta.SnapshotID,
		Tracks:     make([]music.Track, 0, len(items)),
	}
	for _, t := range items {
		f, ok := features[t.ID]
		if !ok {
			pl.Skipped++
			r.Logger.Warn("skipping track without audio features", "track", t.Name)
			continue
		}
		pl.Tracks = append(pl.Tracks, toMusicTrack(t, f, artists))
	}
	if len(pl.Tracks) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidPlaylist, "no track in %q has audio features", meta.Name)
	}
	return pl, nil
}

func toMusicTrack(t spotify.Track, f *spotify.AudioFeatures, artists map[string]*spotify.Artist) music.Track {
	as := make([]music.Artist, 0, len(t.Artists))
	for _, a := range t.Artists {
		ma := music.Artist{ID: a.ID, Name: a.Name}
		if full, ok := artists[a.ID]; ok {
			ma.Genres = full.Genres
		}
		as = append(as, ma)
	}
	return music.NewTrack(t.ID, t.Name, t.URI, as, music.AudioFeatures{
		Danceability:     f.Danceability,
		Energy:           f.Energy,
		Loudness:         f.Loudness,
		Speechiness:      f.Speechiness,
		Acousticness:     f.Acousticness,
		Instrumentalness: f.Instrumentalness,
		Liveness:         f.Liveness,
		Valence:          f.Valence,
		Tempo:            f.Tempo,
		Key:              f.Key,
		Mode:             f.Mode,
		TimeSignature:    f.TimeSignature,
	})
}

// Generate builds a setlist from pl and caches it under its id.
func (r *Runner) Generate(ctx context.Context, pl *Playlist, opts setlist.Options) (s *setlist.Setlist, stats Stats, err error) {
	hooks := observability.Pipeline()
	hooks.OnGenerateStart(ctx, pl.ID, len(pl.Tracks))
	start := time.Now()
	defer func() {
		n := 0
		if s != nil {
			n = s.Len()
		}
		hooks.OnGenerateComplete(ctx, pl.ID, n, time.Since(start), err)
	}()

	if opts.Start != "" && opts.StartID == "" {
		if err := errors.ValidateTrackQuery(opts.Start); err != nil {
			return nil, Stats{}, err
		}
	}
	s, err = setlist.Generate(pl.Tracks, opts)
	if err != nil {
		return nil, Stats{}, err
	}
	s.Name = pl.Name
	s.PlaylistID = pl.ID

	stats = Stats{
		LoadTime:     pl.LoadTime,
		GenerateTime: time.Since(start),
		PoolSize:     len(pl.Tracks),
		SetlistSize:  s.Len(),
		CacheHit:     pl.FromCache,
	}

	if data, err := json.Marshal(s); err == nil {
		if err := r.Cache.Set(ctx, r.Keyer.SetlistKey(s.ID), data, cache.TTLSetlist); err != nil {
			r.Logger.Warn("setlist not cached", "setlist", s.ID, "err", err)
		}
	}

	r.Logger.Info("generated setlist",
		"playlist", pl.Name,
		"tracks", s.Len(),
		"pool", len(pl.Tracks),
		"duration", stats.GenerateTime)
	return s, stats, nil
}

// Setlist returns a recently generated setlist from the cache.
func (r *Runner) Setlist(ctx context.Context, id string) (*setlist.Setlist, error) {
	data, ok, err := r.Cache.Get(ctx, r.Keyer.SetlistKey(id))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read setlist %s", id)
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeSetlistNotFound, "setlist %s not found or expired", id)
	}
	var s setlist.Setlist
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode setlist %s", id)
	}
	return &s, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
