package music

import (
	"fmt"
	"strings"
)

// Artist is a performing artist with the genres Spotify assigns to them.
type Artist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres,omitempty"`
}

// AudioFeatures holds the Spotify audio analysis of a track.
// Key is the pitch class (0-11, -1 unknown) and Mode is 0 for minor, 1 for major.
type AudioFeatures struct {
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Loudness         float64 `json:"loudness"`
	Speechiness      float64 `json:"speechiness"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"`
	Key              int     `json:"key"`
	Mode             int     `json:"mode"`
	TimeSignature    int     `json:"time_signature"`
}

// Track is a playlist entry annotated for setlist generation.
type Track struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	URI      string        `json:"uri,omitempty"`
	Artists  []Artist      `json:"artists"`
	Features AudioFeatures `json:"features"`
	Camelot  Key           `json:"camelot"`
}

// NewTrack builds a Track and derives its Camelot key from the features.
func NewTrack(id, name, uri string, artists []Artist, features AudioFeatures) Track {
	t := Track{
		ID:       id,
		Name:     name,
		URI:      uri,
		Artists:  artists,
		Features: features,
	}
	t.Camelot, _ = CamelotKey(features.Key, features.Mode)
	return t
}

// Tempo returns the track tempo in BPM.
func (t Track) Tempo() float64 { return t.Features.Tempo }

// ArtistNames returns the artist names joined by ", ".
func (t Track) ArtistNames() string {
	names := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

// Genres returns the set of genres across all artists.
func (t Track) Genres() map[string]struct{} {
	set := make(map[string]struct{})
	for _, a := range t.Artists {
		for _, g := range a.Genres {
			set[g] = struct{}{}
		}
	}
	return set
}

// Label returns "Name - Artist1, Artist2", the form used for listing and
// for start song lookup.
func (t Track) Label() string {
	return t.Name + " - " + t.ArtistNames()
}

// Matches reports whether query is a case-insensitive substring of [Track.Label].
func (t Track) Matches(query string) bool {
	return strings.Contains(strings.ToLower(t.Label()), strings.ToLower(query))
}

// Line formats the track as a setlist line:
//
//	[Artist1, Artist2] - [Name] (128.00 BPM, 8A)
func (t Track) Line() string {
	return fmt.Sprintf("[%s] - [%s] (%.2f BPM, %s)", t.ArtistNames(), t.Name, t.Tempo(), t.Camelot)
}
