// Package pipeline loads Spotify playlists and turns them into setlists.
//
// This package implements the load → generate pipeline used by both the
// CLI and the HTTP server. By centralizing this logic, both entry points
// share caching, logging and instrumentation.
//
// # Stages
//
//  1. Load: resolve the playlist reference, fetch its tracks, then fetch
//     audio features and artist genres concurrently. Tracks without
//     audio features are skipped. The result is cached per playlist
//     snapshot, so an edited playlist is reloaded automatically.
//  2. Generate: run the setlist generator over the loaded tracks.
//
// # Usage
//
//	runner := pipeline.NewRunner(src, cache, nil, logger)
//	pl, err := runner.Load(ctx, "https://open.spotify.com/playlist/...", false)
//	if err != nil {
//	    return err
//	}
//	s, stats, err := runner.Generate(ctx, pl, setlist.Options{Start: "strobe"})
package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/setlistgen/pkg/integrations/spotify"
	"github.com/matzehuels/setlistgen/pkg/music"
)

// Source is the subset of the Spotify client the pipeline needs.
type Source interface {
	Playlist(ctx context.Context, id string) (*spotify.Playlist, error)
	PlaylistTracks(ctx context.Context, id string) ([]spotify.Track, error)
	AudioFeatures(ctx context.Context, ids []string, refresh bool) (map[string]*spotify.AudioFeatures, error)
	Artists(ctx context.Context, ids []string, refresh bool) (map[string]*spotify.Artist, error)
}

var _ Source = (*spotify.Client)(nil)

// Playlist is a loaded playlist ready for setlist generation.
type Playlist struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Owner      string        `json:"owner,omitempty"`
	SnapshotID string        `json:"snapshot_id,omitempty"`
	Tracks     []music.Track `json:"tracks"`
	Skipped    int           `json:"skipped"` // tracks dropped for missing audio features

	// Set by the most recent load; not cached.
	LoadTime  time.Duration `json:"-"`
	FromCache bool          `json:"-"`
}

// Stats describes a pipeline run. LoadTime and CacheHit come from the
// load that produced the playlist.
type Stats struct {
	LoadTime     time.Duration `json:"load_time"`
	GenerateTime time.Duration `json:"generate_time"`
	PoolSize     int           `json:"pool_size"`
	SetlistSize  int           `json:"setlist_size"`
	CacheHit     bool          `json:"cache_hit"`
}
