// Package session keeps logged-in Spotify users between requests.
//
// A [Session] holds the user's Spotify token, refresh token included, so it
// outlives the one-hour access token. Sessions live in a [Store]:
// [MemoryStore] for tests and single instances, [RedisStore] when several
// server instances share logins, and [FileStore] for the CLI.
//
// OAuth state tokens guarding the login redirect live in a [StateStore].
//
//	sess, err := session.New(tok, user, session.DefaultTTL)
//	if err != nil {
//	    return err
//	}
//	if err := store.Set(ctx, sess); err != nil {
//	    return err
//	}
//
//	sess, err = store.Get(ctx, id) // nil, nil when unknown or expired
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/matzehuels/setlistgen/pkg/integrations/spotify"
)

const (
	// DefaultTTL is how long a login stays valid.
	DefaultTTL = 30 * 24 * time.Hour

	// DefaultStateTTL bounds the time between the login redirect and the
	// OAuth callback.
	DefaultStateTTL = 10 * time.Minute
)

// Session is a logged-in Spotify user.
type Session struct {
	ID        string         `json:"id"`
	Token     *spotify.Token `json:"token"`
	User      *spotify.User  `json:"user"`
	ExpiresAt time.Time      `json:"expires_at"`
	CreatedAt time.Time      `json:"created_at"`
}

// New starts a session for user that expires after ttl.
func New(token *spotify.Token, user *spotify.User, ttl time.Duration) (*Session, error) {
	id, err := GenerateID()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Session{ID: id, Token: token, User: user, CreatedAt: now, ExpiresAt: now.Add(ttl)}, nil
}

func (s *Session) IsExpired() bool { return !time.Now().Before(s.ExpiresAt) }

// UserID identifies the session owner across stores, for example as the
// owner of saved setlists. It has the form "spotify:<user id>" and is empty
// for a nil session or one without a user.
func (s *Session) UserID() string {
	if s == nil || s.User == nil {
		return ""
	}
	return "spotify:" + s.User.ID
}

// Store persists sessions. Get returns nil, nil for sessions that are
// unknown or expired.
type Store interface {
	Get(ctx context.Context, sessionID string) (*Session, error)
	Set(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, sessionID string) error
	// Cleanup drops expired sessions. Backends with native expiry may
	// implement it as a no-op.
	Cleanup(ctx context.Context) error
}

// StateStore issues single-use OAuth state tokens.
type StateStore interface {
	Generate(ctx context.Context, ttl time.Duration) (string, error)
	// Validate consumes state. It reports false for unknown, expired or
	// already used tokens.
	Validate(ctx context.Context, state string) (bool, error)
	Cleanup(ctx context.Context) error
}

// GenerateID returns 32 random bytes, base64url encoded.
func GenerateID() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b[:]), nil
}

// GenerateState returns a fresh OAuth state token.
func GenerateState() (string, error) { return GenerateID() }
