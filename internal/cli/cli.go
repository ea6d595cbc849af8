package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/matzehuels/setlistgen/pkg/buildinfo"
	"github.com/matzehuels/setlistgen/pkg/cache"
	"github.com/matzehuels/setlistgen/pkg/config"
	"github.com/matzehuels/setlistgen/pkg/errors"
	"github.com/matzehuels/setlistgen/pkg/integrations/spotify"
	"github.com/matzehuels/setlistgen/pkg/pipeline"
	"github.com/matzehuels/setlistgen/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "setlistgen"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// In and Out are used by interactive prompts.
	In  io.Reader
	Out io.Writer

	configPath      string
	credentialsPath string
	cfg             *config.Config

	// source replaces the Spotify client when set.
	source pipeline.Source
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		In:     os.Stdin,
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "setlistgen builds DJ setlists from Spotify playlists",
		Long: `setlistgen loads a Spotify playlist, reads each track's tempo, key and
audio features, and chains tracks into a setlist that stays within a BPM
window while favouring harmonically compatible (Camelot) transitions.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			if c.credentialsPath != "" {
				cfg.Spotify.CredentialsFile = c.credentialsPath
			}
			c.cfg = cfg
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/setlistgen/config.toml)")
	root.PersistentFlags().StringVar(&c.credentialsPath, "credentials", "", "Spotify credentials JSON file")

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.tracksCommand())
	root.AddCommand(c.authCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// conf returns the loaded configuration, or the defaults when the root
// pre-run did not execute (tests calling subcommands directly).
func (c *CLI) conf() *config.Config {
	if c.cfg == nil {
		cfg := config.Default()
		c.cfg = &cfg
	}
	return c.cfg
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner reading from Spotify.
// A logged-in user's token is used when present so private playlists
// resolve; otherwise the app's client-credentials token is used.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg := c.conf()

	backend, err := newCache(ctx, cfg.Cache, noCache)
	if err != nil {
		return nil, err
	}
	if c.source != nil {
		return pipeline.NewRunner(c.source, backend, nil, c.Logger), nil
	}

	oauth, err := c.newOAuth()
	if err != nil {
		backend.Close()
		return nil, err
	}
	tokens, err := c.tokenSource(ctx, oauth)
	if err != nil {
		backend.Close()
		return nil, err
	}

	client := spotify.NewClient(backend, tokens, c.spotifyOptions()...)
	return pipeline.NewRunner(client, backend, nil, c.Logger), nil
}

func (c *CLI) spotifyOptions() []spotify.Option {
	cfg := c.conf()
	opts := []spotify.Option{
		spotify.WithTTL(cfg.Cache.HTTPTTL),
		spotify.WithUserAgent(buildinfo.UserAgent()),
	}
	if cfg.Spotify.APIURL != "" {
		opts = append(opts, spotify.WithBaseURL(cfg.Spotify.APIURL))
	}
	return opts
}

func (c *CLI) newOAuth() (*spotify.OAuth, error) {
	cfg := c.conf()
	creds, err := spotify.LoadCredentials(cfg.Spotify.CredentialsFile)
	if err != nil {
		return nil, err
	}
	var opts []spotify.OAuthOption
	if cfg.Spotify.AccountsURL != "" {
		opts = append(opts, spotify.WithAccountsURL(cfg.Spotify.AccountsURL))
	}
	return spotify.NewOAuth(creds, opts...), nil
}

func (c *CLI) tokenSource(ctx context.Context, oauth *spotify.OAuth) (spotify.TokenSource, error) {
	store, err := session.NewCLIStore("")
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	sess, err := store.GetSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess == nil || sess.Token == nil {
		c.Logger.Debug("no login session, using client credentials")
		return spotify.NewClientCredentialsSource(oauth), nil
	}

	src := spotify.NewRefreshingSource(oauth, sess.Token)
	src.OnRefresh = func(ctx context.Context, tok *spotify.Token) {
		if err := store.SaveToken(ctx, tok); err != nil {
			c.Logger.Warn("could not persist refreshed token", "error", err)
		}
	}
	c.Logger.Debug("using login session", "user", sess.User.Name())
	return src, nil
}

func newCache(ctx context.Context, cfg config.CacheConfig, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "redis_url")
		}
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
			Prefix:   appName + ":",
		})
	default:
		dir := cfg.Dir
		if dir == "" {
			d, err := cacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
			dir = d
		}
		return cache.NewFileCache(dir)
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/setlistgen/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
