package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/matzehuels/setlistgen/pkg/errors"
	"github.com/matzehuels/setlistgen/pkg/integrations/spotify"
	"github.com/matzehuels/setlistgen/pkg/session"
)

// loginTimeout bounds how long login waits for the browser callback.
const loginTimeout = 5 * time.Minute

// authCommand creates the auth command with subcommands.
func (c *CLI) authCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Spotify account commands",
		Long: `Log in with your Spotify account to read private playlists.

Without a login, setlistgen uses the application's own token, which can
read public playlists only. Your session is stored in the setlistgen
sessions directory of your user config directory.`,
	}

	cmd.AddCommand(c.authLoginCommand())
	cmd.AddCommand(c.authLogoutCommand())
	cmd.AddCommand(c.authWhoamiCommand())

	return cmd
}

// authLoginCommand creates the login subcommand.
func (c *CLI) authLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authenticate with Spotify in the browser",
		Long: `Open the Spotify authorization page and wait for the redirect.

The redirect URI of your Spotify application must point at this machine,
e.g. http://127.0.0.1:8888/callback; setlistgen listens there for the code.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := session.NewCLIStore("")
			if err != nil {
				return fmt.Errorf("open session store: %w", err)
			}
			if existing, _ := store.GetSession(ctx); existing != nil && existing.User != nil {
				printInfo("Already logged in as %s", existing.User.Name())
				printDetail("Run 'setlistgen auth logout' first to re-authenticate")
				return nil
			}

			oauth, err := c.newOAuth()
			if err != nil {
				return err
			}
			sess, err := c.runLogin(ctx, oauth)
			if err != nil {
				return err
			}
			if err := store.SaveSession(ctx, sess); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			printSuccess("Logged in as %s", sess.User.Name())
			return nil
		},
	}
}

// authLogoutCommand creates the logout subcommand.
func (c *CLI) authLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored Spotify session",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := session.NewCLIStore("")
			if err != nil {
				return fmt.Errorf("open session store: %w", err)
			}
			if err := store.DeleteSession(cmd.Context()); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
			printSuccess("Logged out")
			return nil
		},
	}
}

// authWhoamiCommand creates the whoami subcommand.
func (c *CLI) authWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the currently authenticated Spotify user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := session.NewCLIStore("")
			if err != nil {
				return fmt.Errorf("open session store: %w", err)
			}
			sess, err := store.GetSession(ctx)
			if err != nil {
				return fmt.Errorf("get session: %w", err)
			}
			if sess == nil || sess.Token == nil {
				return errors.New(errors.ErrCodeSessionNotFound, "not logged in (run 'setlistgen auth login' first)")
			}

			oauth, err := c.newOAuth()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()

			sp := startSpinner(ctx, "Verifying session...")

			tokens := spotify.NewRefreshingSource(oauth, sess.Token)
			tokens.OnRefresh = func(ctx context.Context, tok *spotify.Token) { _ = store.SaveToken(ctx, tok) }
			user, err := spotify.NewClient(nil, tokens).CurrentUser(ctx)
			if err != nil {
				sp.StopWithError("Session invalid")
				return err
			}
			sp.Stop()

			printSuccess("Spotify Session")
			printKeyValue("User", user.Name())
			printKeyValue("ID", user.ID)
			if user.Email != "" {
				printKeyValue("Email", user.Email)
			}
			if user.Product != "" {
				printKeyValue("Plan", user.Product)
			}
			printKeyValue("Logged in", sess.CreatedAt.Format("Jan 2, 2006"))
			printKeyValue("Expires", sess.ExpiresAt.Format("Jan 2, 2006"))
			return nil
		},
	}
}

// =============================================================================
// Authorization Code Login
// =============================================================================

// runLogin performs the authorization code flow against a local callback
// server bound to the redirect URI and returns a new session.
func (c *CLI) runLogin(ctx context.Context, oauth *spotify.OAuth) (*session.Session, error) {
	redirect, err := url.Parse(oauth.RedirectURI())
	if err != nil || redirect.Host == "" {
		return nil, errors.New(errors.ErrCodeInvalidCredentials, "redirect URI %q is not a URL", oauth.RedirectURI())
	}

	state, err := session.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}

	ln, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidCredentials, err,
			"cannot listen on %s; the redirect URI must point at this machine", redirect.Host)
	}

	loginCtx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	authURL := oauth.AuthorizationURL(state)
	printNewline()
	fmt.Fprintln(stdout, styleTitle.Render("Spotify Authorization"))
	printNewline()
	printKeyValue("URL", styleLink.Render(authURL))
	printNewline()
	if err := openBrowser(authURL); err != nil {
		printDetail("Copy the URL above and paste it in your browser")
	} else {
		printDetail("Opening browser...")
	}
	printInline("Waiting for authorization...")

	code, err := serveCallback(loginCtx, ln, redirect.Path, state)
	printNewline()
	if err != nil {
		return nil, err
	}

	tok, err := oauth.ExchangeCode(loginCtx, code)
	if err != nil {
		return nil, err
	}
	user, err := spotify.NewClient(nil, spotify.StaticToken(tok.AccessToken)).CurrentUser(loginCtx)
	if err != nil {
		return nil, err
	}
	return session.New(tok, user, session.DefaultTTL)
}

type callbackResult struct {
	code string
	err  error
}

// serveCallback serves the OAuth redirect on ln until one valid callback
// arrives or ctx ends. The listener is closed on return.
func serveCallback(ctx context.Context, ln net.Listener, path, state string) (string, error) {
	if path == "" {
		path = "/"
	}
	results := make(chan callbackResult, 1)

	r := chi.NewRouter()
	r.Get(path, func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		var res callbackResult
		switch {
		case q.Get("state") != state:
			res.err = errors.New(errors.ErrCodeUnauthorized, "OAuth state mismatch")
		case q.Get("error") != "":
			res.err = errors.New(errors.ErrCodeUnauthorized, "authorization denied: %s", q.Get("error"))
		case q.Get("code") == "":
			res.err = errors.New(errors.ErrCodeUnauthorized, "callback without code")
		default:
			res.code = q.Get("code")
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if res.err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "<p>Login failed: %s</p>", errors.UserMessage(res.err))
		} else {
			fmt.Fprint(w, "<p>Logged in to setlistgen. You can close this window.</p>")
		}
		select {
		case results <- res:
		default:
		}
	})

	srv := &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	select {
	case res := <-results:
		return res.code, res.err
	case <-ctx.Done():
		return "", errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "no authorization received")
	}
}

// browserCommands maps GOOS to the command that opens a URL.
var browserCommands = map[string][]string{
	"darwin":  {"open"},
	"linux":   {"xdg-open"},
	"freebsd": {"xdg-open"},
	"windows": {"rundll32", "url.dll,FileProtocolHandler"},
}

func openBrowser(rawURL string) error {
	if err := errors.ValidateURL(rawURL); err != nil {
		return err
	}
	argv, ok := browserCommands[runtime.GOOS]
	if !ok {
		return errors.New(errors.ErrCodeUnsupported, "cannot open a browser on %s", runtime.GOOS)
	}
	return exec.Command(argv[0], append(argv[1:], rawURL)...).Start()
}
