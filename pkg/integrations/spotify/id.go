package spotify

import (
	"net/url"
	"strings"

	"github.com/matzehuels/setlistgen/pkg/errors"
)

// ParsePlaylistID extracts the playlist id from a playlist reference:
//
//	https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc
//	spotify:playlist:37i9dQZF1DXcBWIGoYBM5M
//	37i9dQZF1DXcBWIGoYBM5M
//
// For URLs the last path segment is used and the query string is dropped.
func ParsePlaylistID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New(errors.ErrCodeInvalidPlaylist, "playlist reference is empty")
	}

	id := ref
	switch {
	case strings.HasPrefix(ref, "spotify:"):
		parts := strings.Split(ref, ":")
		if len(parts) != 3 || parts[1] != "playlist" {
			return "", errors.New(errors.ErrCodeInvalidPlaylist, "not a playlist URI: %s", ref)
		}
		id = parts[2]
	case strings.Contains(ref, "/"):
		u, err := url.Parse(ref)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInvalidPlaylist, err, "invalid playlist URL: %s", ref)
		}
		path := strings.TrimSuffix(u.Path, "/")
		id = path[strings.LastIndex(path, "/")+1:]
	default:
		id, _, _ = strings.Cut(ref, "?")
	}

	if err := errors.ValidateSpotifyID(id); err != nil {
		return "", err
	}
	return id, nil
}

// TrackURI returns the spotify: URI for a track id.
func TrackURI(id string) string { return "spotify:track:" + id }

// PlaylistURL returns the open.spotify.com URL for a playlist id.
func PlaylistURL(id string) string { return "https://open.spotify.com/playlist/" + id }
