package spotify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/setlistgen/pkg/errors"
	"github.com/matzehuels/setlistgen/pkg/integrations"
)

var testCreds = &Credentials{
	ClientID:     "cid",
	ClientSecret: "csecret",
	RedirectURI:  "http://127.0.0.1:8888/callback",
}

// accountsServer fakes the token endpoint. It echoes the grant type in
// the access token so tests can tell flows apart.
func accountsServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		if r.URL.Path != "/api/token" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		want := "Basic " + base64.StdEncoding.EncodeToString([]byte("cid:csecret"))
		if r.Header.Get("Authorization") != want {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		r.ParseForm()
		grant := r.PostForm.Get("grant_type")
		resp := map[string]any{
			"access_token": "access-" + grant,
			"token_type":   "Bearer",
			"expires_in":   3600,
		}
		switch grant {
		case "authorization_code":
			if r.PostForm.Get("code") != "good" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid authorization code"}`))
				return
			}
			resp["refresh_token"] = "refresh-1"
			resp["scope"] = Scope
		case "refresh_token":
			if r.PostForm.Get("refresh_token") == "revoked" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":"invalid_grant","error_description":"Refresh token revoked"}`))
				return
			}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestOAuth(srv *httptest.Server) *OAuth {
	hc := integrations.NewClient(nil, "spotify-accounts", 0, nil,
		integrations.WithHTTPClient(srv.Client()),
		integrations.WithRetry(1, time.Millisecond),
	)
	return NewOAuth(testCreds, WithAccountsURL(srv.URL), WithOAuthHTTP(hc))
}

func TestAuthorizationURL(t *testing.T) {
	o := NewOAuth(testCreds)
	u, err := url.Parse(o.AuthorizationURL("state123"))
	if err != nil {
		t.Fatal(err)
	}
	if u.Host != "accounts.spotify.com" || u.Path != "/authorize" {
		t.Errorf("unexpected URL %s", u)
	}
	q := u.Query()
	checks := map[string]string{
		"client_id":     "cid",
		"response_type": "code",
		"redirect_uri":  testCreds.RedirectURI,
		"scope":         "user-library-read playlist-read-private",
		"state":         "state123",
	}
	for k, want := range checks {
		if got := q.Get(k); got != want {
			t.Errorf("%s = %q, want %q", k, got, want)
		}
	}
}

func TestExchangeCode(t *testing.T) {
	o := newTestOAuth(accountsServer(t, nil))

	tok, err := o.ExchangeCode(context.Background(), "good")
	if err != nil {
		t.Fatalf("ExchangeCode() error: %v", err)
	}
	if tok.AccessToken != "access-authorization_code" || tok.RefreshToken != "refresh-1" {
		t.Errorf("unexpected token %+v", tok)
	}
	if !tok.Valid() {
		t.Error("fresh token should be valid")
	}
	if time.Until(tok.ExpiresAt) < 59*time.Minute {
		t.Errorf("ExpiresAt = %v, want ~1h from now", tok.ExpiresAt)
	}
}

func TestExchangeCodeRejected(t *testing.T) {
	o := newTestOAuth(accountsServer(t, nil))

	_, err := o.ExchangeCode(context.Background(), "bad")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Invalid authorization code") {
		t.Errorf("error should carry the API message: %v", err)
	}

	if _, err := o.ExchangeCode(context.Background(), ""); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty code: error = %v", err)
	}
}

func TestRefreshKeepsRefreshToken(t *testing.T) {
	o := newTestOAuth(accountsServer(t, nil))

	tok, err := o.Refresh(context.Background(), "refresh-1")
	if err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	if tok.AccessToken != "access-refresh_token" {
		t.Errorf("AccessToken = %q", tok.AccessToken)
	}
	if tok.RefreshToken != "refresh-1" {
		t.Errorf("RefreshToken = %q, want the previous one", tok.RefreshToken)
	}

	if _, err := o.Refresh(context.Background(), ""); !errors.Is(err, errors.ErrCodeSessionExpired) {
		t.Errorf("empty refresh token: error = %v", err)
	}
}

func TestRefreshingSource(t *testing.T) {
	var calls atomic.Int32
	o := newTestOAuth(accountsServer(t, &calls))

	expired := &Token{AccessToken: "old", RefreshToken: "refresh-1", ExpiresAt: time.Now().Add(-time.Minute)}
	src := NewRefreshingSource(o, expired)

	var persisted *Token
	src.OnRefresh = func(_ context.Context, tok *Token) { persisted = tok }

	got, err := src.AccessToken(context.Background())
	if err != nil {
		t.Fatalf("AccessToken() error: %v", err)
	}
	if got != "access-refresh_token" {
		t.Errorf("AccessToken() = %q", got)
	}
	if persisted == nil || persisted.AccessToken != got {
		t.Error("OnRefresh should receive the new token")
	}

	if _, err := src.AccessToken(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 1 {
		t.Errorf("token endpoint called %d times, want 1", calls.Load())
	}
}

func TestRefreshingSourceValidToken(t *testing.T) {
	src := NewRefreshingSource(nil, &Token{AccessToken: "live", ExpiresAt: time.Now().Add(time.Hour)})
	got, err := src.AccessToken(context.Background())
	if err != nil || got != "live" {
		t.Errorf("AccessToken() = %q, %v", got, err)
	}
}

func TestClientCredentialsSource(t *testing.T) {
	var calls atomic.Int32
	src := NewClientCredentialsSource(newTestOAuth(accountsServer(t, &calls)))

	for range 3 {
		got, err := src.AccessToken(context.Background())
		if err != nil {
			t.Fatalf("AccessToken() error: %v", err)
		}
		if got != "access-client_credentials" {
			t.Errorf("AccessToken() = %q", got)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("token endpoint called %d times, want 1", calls.Load())
	}
}

func TestTokenValid(t *testing.T) {
	var nilTok *Token
	if nilTok.Valid() {
		t.Error("nil token should be invalid")
	}
	if (&Token{AccessToken: "x", ExpiresAt: time.Now().Add(30 * time.Second)}).Valid() {
		t.Error("token expiring within a minute should be invalid")
	}
	if !(&Token{AccessToken: "x", ExpiresAt: time.Now().Add(time.Hour)}).Valid() {
		t.Error("token expiring in an hour should be valid")
	}
}
