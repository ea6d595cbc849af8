package errors

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// MaxTrackQueryLen bounds start song queries.
const MaxTrackQueryLen = 256

// Spotify IDs are base-62. Real ones have 22 characters; only the alphabet
// and an upper bound are enforced.
var spotifyID = regexp.MustCompile(`^[0-9A-Za-z]{1,64}$`)

func hasControl(s string) bool { return strings.IndexFunc(s, unicode.IsControl) >= 0 }

// ValidateSpotifyID checks a playlist, track or artist ID.
func ValidateSpotifyID(id string) error {
	switch {
	case id == "":
		return New(ErrCodeInvalidPlaylist, "spotify id cannot be empty")
	case !spotifyID.MatchString(id):
		return New(ErrCodeInvalidPlaylist, "invalid spotify id: %q", id)
	}
	return nil
}

// ValidateTrackQuery checks a start song query: not blank, at most
// [MaxTrackQueryLen] bytes and free of control characters.
func ValidateTrackQuery(query string) error {
	switch {
	case strings.TrimSpace(query) == "":
		return New(ErrCodeInvalidInput, "track query cannot be empty")
	case len(query) > MaxTrackQueryLen:
		return New(ErrCodeInvalidInput, "track query too long (max %d characters)", MaxTrackQueryLen)
	case hasControl(query):
		return New(ErrCodeInvalidInput, "track query contains control characters")
	}
	return nil
}

// ValidateFilename accepts plain, visible file names only: no directories,
// no leading dot, no control characters.
func ValidateFilename(name string) error {
	switch {
	case name == "":
		return New(ErrCodeInvalidInput, "filename cannot be empty")
	case strings.ContainsAny(name, `/\`):
		return New(ErrCodeInvalidInput, "filename cannot contain path separators")
	case name[0] == '.':
		return New(ErrCodeInvalidInput, "filename cannot be a hidden file")
	case hasControl(name):
		return New(ErrCodeInvalidInput, "filename contains control characters")
	}
	return nil
}

// ValidateURL accepts absolute http and https URLs.
func ValidateURL(raw string) error {
	if raw == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return New(ErrCodeInvalidInput, "URL must be absolute http or https, got %q", raw)
	}
	return nil
}
