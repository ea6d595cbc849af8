package spotify

import "time"

// User is the Spotify account behind an access token.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Country     string `json:"country,omitempty"`
	Product     string `json:"product,omitempty"`
}

// Name returns the display name, falling back to the user id.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.ID
}

// Playlist is playlist metadata without its tracks.
type Playlist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	SnapshotID string `json:"snapshot_id"`
	Owner      User   `json:"owner"`
	Tracks     struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

// SimpleArtist is the artist reference embedded in a track.
type SimpleArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Track is a playlist track.
type Track struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	URI        string         `json:"uri"`
	IsLocal    bool           `json:"is_local"`
	DurationMS int            `json:"duration_ms"`
	Artists    []SimpleArtist `json:"artists"`
}

// Artist is a full artist object.
type Artist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
}

// AudioFeatures is the audio analysis summary of a track.
type AudioFeatures struct {
	ID               string  `json:"id"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Key              int     `json:"key"`
	Loudness         float64 `json:"loudness"`
	Mode             int     `json:"mode"`
	Speechiness      float64 `json:"speechiness"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"`
	TimeSignature    int     `json:"time_signature"`
}

// Token is an OAuth token. RefreshToken is empty for client credentials.
type Token struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	Scope        string    `json:"scope,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// expiryDelta refreshes tokens slightly before they expire.
const expiryDelta = time.Minute

// Valid reports whether the token is present and not about to expire.
func (t *Token) Valid() bool {
	return t != nil && t.AccessToken != "" && time.Now().Add(expiryDelta).Before(t.ExpiresAt)
}

type playlistTracksPage struct {
	Items []struct {
		Track *Track `json:"track"`
	} `json:"items"`
	Next  string `json:"next"`
	Total int    `json:"total"`
}

type audioFeaturesResponse struct {
	AudioFeatures []*AudioFeatures `json:"audio_features"`
}

type artistsResponse struct {
	Artists []*Artist `json:"artists"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}
