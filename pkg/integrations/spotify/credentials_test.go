package spotify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/setlistgen/pkg/errors"
)

func writeCreds(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "creds.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// isolate moves the working directory and config dir so the default
// credential locations do not exist.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	for _, k := range []string{EnvClientID, EnvClientSecret, EnvRedirectURI, "SPOTIFY_CLIENT_ID", "SPOTIFY_CLIENT_SECRET", "SPOTIFY_REDIRECT_URI"} {
		t.Setenv(k, "")
	}
}

func TestLoadCredentialsFile(t *testing.T) {
	isolate(t)
	path := writeCreds(t, `{"client_id":"id","client_secret":"secret","redirect_uri":"http://127.0.0.1:8888/callback"}`)

	c, err := LoadCredentials(path)
	if err != nil {
		t.Fatalf("LoadCredentials() error: %v", err)
	}
	if c.ClientID != "id" || c.ClientSecret != "secret" || c.RedirectURI != "http://127.0.0.1:8888/callback" {
		t.Errorf("unexpected credentials: %+v", c)
	}
}

func TestLoadCredentialsMissingFile(t *testing.T) {
	isolate(t)
	_, err := LoadCredentials(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadCredentialsInvalidFile(t *testing.T) {
	isolate(t)

	_, err := LoadCredentials(writeCreds(t, `{`))
	if !errors.Is(err, errors.ErrCodeInvalidCredentials) {
		t.Errorf("malformed json: error = %v", err)
	}

	_, err = LoadCredentials(writeCreds(t, `{"client_id":"id"}`))
	if !errors.Is(err, errors.ErrCodeInvalidCredentials) {
		t.Errorf("missing fields: error = %v", err)
	}
}

func TestLoadCredentialsDefaultPath(t *testing.T) {
	isolate(t)
	wd, _ := os.Getwd()
	dir := filepath.Join(filepath.Dir(wd), "creds")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := `{"client_id":"default","client_secret":"s","redirect_uri":"http://localhost/cb"}`
	if err := os.WriteFile(filepath.Join(dir, "spotify_credentials.json"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := LoadCredentials("")
	if err != nil {
		t.Fatalf("LoadCredentials() error: %v", err)
	}
	if c.ClientID != "default" {
		t.Errorf("ClientID = %q, want default", c.ClientID)
	}
}

func TestLoadCredentialsEnv(t *testing.T) {
	isolate(t)
	t.Setenv(EnvClientID, "env-id")
	t.Setenv(EnvClientSecret, "env-secret")
	t.Setenv("SPOTIFY_REDIRECT_URI", "http://localhost:8888/callback")

	c, err := LoadCredentials("")
	if err != nil {
		t.Fatalf("LoadCredentials() error: %v", err)
	}
	if c.ClientID != "env-id" || c.RedirectURI != "http://localhost:8888/callback" {
		t.Errorf("unexpected credentials: %+v", c)
	}
}

func TestLoadCredentialsEnvMissing(t *testing.T) {
	isolate(t)
	t.Setenv(EnvClientID, "env-id")

	_, err := LoadCredentials("")
	if !errors.Is(err, errors.ErrCodeInvalidCredentials) {
		t.Fatalf("error = %v, want INVALID_CREDENTIALS", err)
	}
	if msg := errors.UserMessage(err); msg != "set SPOTIPY_CLIENT_ID, SPOTIPY_CLIENT_SECRET, and SPOTIPY_REDIRECT_URI in your environment variables" {
		t.Errorf("message = %q", msg)
	}
}
