// Package cache provides the byte-level caching layer shared by the CLI and
// the HTTP server.
//
// # Backends
//
//   - [FileCache]: JSON entry files under ~/.cache/setlistgen/ (CLI default)
//   - [RedisCache]: Redis, for multi-instance server deployments
//   - [NullCache]: Caching disabled (--no-cache, tests)
//
// # Keys
//
// Keys are produced by a [Keyer] so that every component namespaces its
// entries the same way. [ScopedKeyer] prefixes all keys, which the server
// uses to isolate data fetched with a user's own access token (private
// playlists) from data fetched with the application token.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values per entry type.
const (
	// TTLHTTP applies to per-object API responses (audio features, artists).
	// Audio analysis of a track never changes, so this is long.
	TTLHTTP = 7 * 24 * time.Hour

	// TTLPlaylist applies to resolved playlists. Playlists are edited often.
	TTLPlaylist = time.Hour

	// TTLSetlist applies to generated setlists kept for export.
	TTLSetlist = 24 * time.Hour
)

// Cache is the interface implemented by all cache backends.
//
// Get returns (data, true, nil) on a hit, (nil, false, nil) on a miss and a
// non-nil error only for backend failures. Callers treat backend failures
// as misses.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer generates cache keys.
type Keyer interface {
	// HTTPKey returns the key for a cached API object.
	HTTPKey(namespace, key string) string

	// PlaylistKey returns the key for a resolved playlist.
	PlaylistKey(playlistID string, opts PlaylistKeyOpts) string

	// SetlistKey returns the key for a generated setlist.
	SetlistKey(setlistID string) string
}

// PlaylistKeyOpts holds the options that change a resolved playlist.
type PlaylistKeyOpts struct {
	// SnapshotID is the playlist version reported by Spotify; empty when unknown.
	SnapshotID string `json:"snapshot_id,omitempty"`

	// Market restricts track availability; empty for the token's default.
	Market string `json:"market,omitempty"`
}
