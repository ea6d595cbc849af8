package spotify

import (
	"context"
	"sync"
)

// TokenSource supplies access tokens for API requests.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

// AccessToken returns the token.
func (s StaticToken) AccessToken(context.Context) (string, error) { return string(s), nil }

// RefreshingSource refreshes a user token through OAuth when it expires.
// OnRefresh, when set, is called with every new token so callers can
// persist it.
type RefreshingSource struct {
	OnRefresh func(ctx context.Context, tok *Token)

	mu    sync.Mutex
	oauth *OAuth
	tok   *Token
}

// NewRefreshingSource creates a source starting from tok.
func NewRefreshingSource(oauth *OAuth, tok *Token) *RefreshingSource {
	return &RefreshingSource{oauth: oauth, tok: tok}
}

// AccessToken returns a valid access token, refreshing it if needed.
func (s *RefreshingSource) AccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tok.Valid() {
		return s.tok.AccessToken, nil
	}

	var refresh string
	if s.tok != nil {
		refresh = s.tok.RefreshToken
	}
	tok, err := s.oauth.Refresh(ctx, refresh)
	if err != nil {
		return "", err
	}
	s.tok = tok
	if s.OnRefresh != nil {
		s.OnRefresh(ctx, tok)
	}
	return tok.AccessToken, nil
}

// Token returns the current token.
func (s *RefreshingSource) Token() *Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tok
}

// ClientCredentialsSource fetches and caches app-only tokens.
type ClientCredentialsSource struct {
	mu    sync.Mutex
	oauth *OAuth
	tok   *Token
}

// NewClientCredentialsSource creates an app-only token source.
func NewClientCredentialsSource(oauth *OAuth) *ClientCredentialsSource {
	return &ClientCredentialsSource{oauth: oauth}
}

// AccessToken returns a cached token or requests a new one.
func (s *ClientCredentialsSource) AccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tok.Valid() {
		return s.tok.AccessToken, nil
	}
	tok, err := s.oauth.ClientCredentials(ctx)
	if err != nil {
		return "", err
	}
	s.tok = tok
	return tok.AccessToken, nil
}
