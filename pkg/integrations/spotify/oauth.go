package spotify

import (
	"context"
	"encoding/base64"
	"net/url"
	"time"

	"github.com/matzehuels/setlistgen/pkg/errors"
	"github.com/matzehuels/setlistgen/pkg/integrations"
)

// Scope is requested during the Authorization Code flow.
const Scope = "user-library-read playlist-read-private"

// DefaultAccountsURL is the Spotify Accounts service.
const DefaultAccountsURL = "https://accounts.spotify.com"

// OAuth handles Spotify OAuth operations.
type OAuth struct {
	creds       Credentials
	accountsURL string
	http        *integrations.Client
}

// OAuthOption configures [OAuth].
type OAuthOption func(*OAuth)

// WithAccountsURL overrides the Accounts service base URL.
func WithAccountsURL(u string) OAuthOption {
	return func(o *OAuth) { o.accountsURL = u }
}

// WithOAuthHTTP replaces the HTTP client used for token requests.
func WithOAuthHTTP(c *integrations.Client) OAuthOption {
	return func(o *OAuth) { o.http = c }
}

// NewOAuth creates an OAuth client for the given application credentials.
func NewOAuth(creds *Credentials, opts ...OAuthOption) *OAuth {
	o := &OAuth{
		creds:       *creds,
		accountsURL: DefaultAccountsURL,
		http:        integrations.NewClient(nil, "spotify-accounts", 0, nil),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RedirectURI returns the configured redirect URI.
func (o *OAuth) RedirectURI() string { return o.creds.RedirectURI }

// AuthorizationURL returns the URL the user visits to grant access.
func (o *OAuth) AuthorizationURL(state string) string {
	params := url.Values{
		"client_id":     {o.creds.ClientID},
		"response_type": {"code"},
		"redirect_uri":  {o.creds.RedirectURI},
		"scope":         {Scope},
		"state":         {state},
	}
	return o.accountsURL + "/authorize?" + params.Encode()
}

// ExchangeCode exchanges an authorization code for an access token.
func (o *OAuth) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	if code == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "authorization code is empty")
	}
	return o.token(ctx, url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {o.creds.RedirectURI},
	})
}

// Refresh obtains a new access token. Spotify may omit the refresh token
// in the response, in which case the old one is kept.
func (o *OAuth) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	if refreshToken == "" {
		return nil, errors.New(errors.ErrCodeSessionExpired, "no refresh token; log in again")
	}
	tok, err := o.token(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	})
	if err != nil {
		return nil, err
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}
	return tok, nil
}

// ClientCredentials obtains an app-only token. It can read public
// playlists but not user data.
func (o *OAuth) ClientCredentials(ctx context.Context) (*Token, error) {
	return o.token(ctx, url.Values{"grant_type": {"client_credentials"}})
}

func (o *OAuth) token(ctx context.Context, form url.Values) (*Token, error) {
	basic := base64.StdEncoding.EncodeToString([]byte(o.creds.ClientID + ":" + o.creds.ClientSecret))
	headers := map[string]string{"Authorization": "Basic " + basic}

	var resp tokenResponse
	if err := o.http.PostForm(ctx, o.accountsURL+"/api/token", form, headers, &resp); err != nil {
		return nil, classify(err, "request %s token", form.Get("grant_type"))
	}
	if resp.AccessToken == "" {
		return nil, errors.New(errors.ErrCodeUnauthorized, "token response has no access token")
	}

	return &Token{
		AccessToken:  resp.AccessToken,
		TokenType:    resp.TokenType,
		Scope:        resp.Scope,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}, nil
}
