package server

import (
	"context"
	"net/http"
	"time"

	"github.com/matzehuels/setlistgen/pkg/errors"
	"github.com/matzehuels/setlistgen/pkg/integrations/spotify"
	"github.com/matzehuels/setlistgen/pkg/session"
)

// CookieName is the session cookie set after login.
const CookieName = "setlistgen_session"

type sessionKey struct{}

// sessionFrom returns the session attached by loadSession, or nil.
func sessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey{}).(*session.Session)
	return sess
}

// owner returns the store owner of the request, or "" when anonymous.
func owner(ctx context.Context) string {
	if sess := sessionFrom(ctx); sess != nil {
		return sess.UserID()
	}
	return ""
}

// loadSession attaches the session named by the cookie or a bearer token.
// Unknown or expired ids are ignored.
func (s *Server) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := bearer(r)
		if c, err := r.Cookie(CookieName); err == nil && id == "" {
			id = c.Value
		}
		if id != "" {
			sess, err := s.opts.Sessions.Get(r.Context(), id)
			if err != nil {
				s.logger.Warn("session lookup failed", "err", err)
			}
			if sess != nil {
				r = r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sessionFrom(r.Context()) == nil {
			s.writeError(w, r, errors.New(errors.ErrCodeUnauthorized, "login required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.opts.OAuth == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "login is not configured"))
		return
	}
	state, err := s.opts.States.Generate(r.Context(), session.DefaultStateTTL)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, s.opts.OAuth.AuthorizationURL(state), http.StatusFound)
}

type loginResponse struct {
	SessionID string        `json:"session_id"`
	User      *spotify.User `json:"user"`
	ExpiresAt time.Time     `json:"expires_at"`
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	if s.opts.OAuth == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "login is not configured"))
		return
	}
	ctx := r.Context()
	q := r.URL.Query()

	ok, err := s.opts.States.Validate(ctx, q.Get("state"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	switch {
	case !ok:
		s.writeError(w, r, errors.New(errors.ErrCodeUnauthorized, "invalid or expired OAuth state"))
		return
	case q.Get("error") != "":
		s.writeError(w, r, errors.New(errors.ErrCodeUnauthorized, "authorization denied: %s", q.Get("error")))
		return
	case q.Get("code") == "":
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "callback without code"))
		return
	}

	tok, err := s.opts.OAuth.ExchangeCode(ctx, q.Get("code"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	user, err := spotify.NewClient(nil, spotify.StaticToken(tok.AccessToken), s.opts.SpotifyOptions...).CurrentUser(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := session.New(tok, user, session.DefaultTTL)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.opts.Sessions.Set(ctx, sess); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "save session"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	s.logger.Info("login", "user", sess.UserID())
	writeJSON(w, http.StatusOK, loginResponse{SessionID: sess.ID, User: user, ExpiresAt: sess.ExpiresAt})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := sessionFrom(r.Context()); sess != nil {
		if err := s.opts.Sessions.Delete(r.Context(), sess.ID); err != nil {
			s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "delete session"))
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
