// Package config loads setlistgen settings.
//
// Settings are layered, later sources winning:
//
//  1. built-in defaults ([Default])
//  2. the TOML file at $XDG_CONFIG_HOME/setlistgen/config.toml (or --config)
//  3. a .env file in the working directory
//  4. the process environment
//
// Command-line flags are applied on top by the CLI. The merged result is
// validated before use.
//
// Example config.toml:
//
//	[spotify]
//	credentials_file = "~/creds/spotify_credentials.json"
//
//	[setlist]
//	max_songs = 40
//	bpm_range = 0.04
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//
//	[server]
//	addr = ":8080"
//	mongo_uri = "mongodb://localhost:27017"
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/setlistgen/pkg/errors"
	"github.com/matzehuels/setlistgen/pkg/setlist"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Environment variables overriding the config file.
const (
	EnvCredentials  = "SETLISTGEN_CREDENTIALS"
	EnvCacheBackend = "SETLISTGEN_CACHE"
	EnvCacheDir     = "SETLISTGEN_CACHE_DIR"
	EnvRedisURL     = "REDIS_URL"
	EnvAddr         = "SETLISTGEN_ADDR"
	EnvBaseURL      = "SETLISTGEN_BASE_URL"
	EnvMongoURI     = "MONGODB_URI"
	EnvRateLimit    = "SETLISTGEN_RATE_LIMIT"
	EnvMaxSongs     = "SETLISTGEN_MAX_SONGS"
	EnvBPMRange     = "SETLISTGEN_BPM_RANGE"
)

// Config is the merged configuration.
type Config struct {
	Spotify SpotifyConfig   `toml:"spotify"`
	Setlist setlist.Options `toml:"setlist"`
	Cache   CacheConfig     `toml:"cache"`
	Server  ServerConfig    `toml:"server"`
}

// SpotifyConfig locates the Spotify application credentials.
type SpotifyConfig struct {
	CredentialsFile string `toml:"credentials_file"`
	APIURL          string `toml:"api_url" validate:"omitempty,url"`
	AccountsURL     string `toml:"accounts_url" validate:"omitempty,url"`
}

// CacheConfig selects the response cache.
type CacheConfig struct {
	Backend  string        `toml:"backend" validate:"oneof=file redis none"`
	Dir      string        `toml:"dir"`
	RedisURL string        `toml:"redis_url" validate:"required_if=Backend redis,omitempty,url"`
	HTTPTTL  time.Duration `toml:"http_ttl" validate:"gte=0"`
}

// ServerConfig configures "setlistgen serve".
type ServerConfig struct {
	Addr            string        `toml:"addr" validate:"required"`
	BaseURL         string        `toml:"base_url" validate:"omitempty,url"`
	MongoURI        string        `toml:"mongo_uri" validate:"omitempty,url"`
	RateLimit       int           `toml:"rate_limit" validate:"gte=0"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" validate:"gte=0"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Setlist: setlist.DefaultOptions(),
		Cache:   CacheConfig{Backend: CacheFile, HTTPTTL: 7 * 24 * time.Hour},
		Server: ServerConfig{
			Addr:            ":8080",
			RateLimit:       60,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/setlistgen/config.toml, falling back
// to the platform config directory.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "setlistgen", "config.toml")
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "setlistgen", "config.toml")
}

// Load builds the configuration from path (DefaultPath when empty).
// A missing default file is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			if !explicit && errors.Is(err, errors.ErrCodeFileNotFound) {
				err = nil
			}
			if err != nil {
				return nil, err
			}
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load .env")
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	cfg.Spotify.CredentialsFile = expandHome(cfg.Spotify.CredentialsFile)
	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Spotify.CredentialsFile, EnvCredentials)
	setString(&c.Cache.Backend, EnvCacheBackend)
	setString(&c.Cache.Dir, EnvCacheDir)
	setString(&c.Cache.RedisURL, EnvRedisURL)
	setString(&c.Server.Addr, EnvAddr)
	setString(&c.Server.BaseURL, EnvBaseURL)
	setString(&c.Server.MongoURI, EnvMongoURI)

	if v := os.Getenv(EnvRateLimit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", EnvRateLimit)
		}
		c.Server.RateLimit = n
	}
	if v := os.Getenv(EnvMaxSongs); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", EnvMaxSongs)
		}
		c.Setlist.MaxSongs = n
	}
	if v := os.Getenv(EnvBPMRange); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", EnvBPMRange)
		}
		c.Setlist.BPMRange = f
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func expandHome(p string) string {
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return p
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	return errors.ValidateStruct(errors.ErrCodeInvalidConfig, c)
}
