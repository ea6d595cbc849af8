package spotify

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/matzehuels/setlistgen/pkg/errors"
)

// DefaultCredentialsPath is checked first when no credentials file is given.
const DefaultCredentialsPath = "../creds/spotify_credentials.json"

// Environment variables read when no credentials file exists. The
// SPOTIFY_ spellings are accepted as fallbacks.
const (
	EnvClientID     = "SPOTIPY_CLIENT_ID"
	EnvClientSecret = "SPOTIPY_CLIENT_SECRET"
	EnvRedirectURI  = "SPOTIPY_REDIRECT_URI"
)

// Credentials identify the Spotify application.
type Credentials struct {
	ClientID     string `json:"client_id" validate:"required"`
	ClientSecret string `json:"client_secret" validate:"required"`
	RedirectURI  string `json:"redirect_uri" validate:"required,url"`
}

// LoadCredentials reads credentials from path. When path is empty it tries
// [DefaultCredentialsPath], then spotify_credentials.json in the user
// config directory, and finally the environment.
func LoadCredentials(path string) (*Credentials, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "no credentials file found at %s", path)
		}
		return loadCredentialsFile(path)
	}

	for _, candidate := range credentialCandidates() {
		if _, err := os.Stat(candidate); err == nil {
			return loadCredentialsFile(candidate)
		}
	}
	return credentialsFromEnv()
}

func credentialCandidates() []string {
	paths := []string{DefaultCredentialsPath}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "setlistgen", "spotify_credentials.json"))
	}
	return paths
}

func loadCredentialsFile(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read credentials %s", path)
	}
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidCredentials, err, "parse credentials %s", path)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func credentialsFromEnv() (*Credentials, error) {
	c := &Credentials{
		ClientID:     getenv(EnvClientID, "SPOTIFY_CLIENT_ID"),
		ClientSecret: getenv(EnvClientSecret, "SPOTIFY_CLIENT_SECRET"),
		RedirectURI:  getenv(EnvRedirectURI, "SPOTIFY_REDIRECT_URI"),
	}
	if c.ClientID == "" || c.ClientSecret == "" || c.RedirectURI == "" {
		return nil, errors.New(errors.ErrCodeInvalidCredentials,
			"set %s, %s, and %s in your environment variables", EnvClientID, EnvClientSecret, EnvRedirectURI)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that all fields are present and the redirect URI parses.
func (c *Credentials) Validate() error {
	return errors.ValidateStruct(errors.ErrCodeInvalidCredentials, c)
}

func getenv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
