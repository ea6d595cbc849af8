package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"

	"github.com/matzehuels/setlistgen/pkg/integrations/spotify"
)

// FileStore keeps one JSON file per session in a directory. Writes are
// atomic, so a crash never leaves a half-written token behind.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore creates dir if needed. An empty dir means [DefaultDir].
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("session dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// DefaultDir is <user config dir>/setlistgen/sessions.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("session dir: %w", err)
	}
	return filepath.Join(base, "setlistgen", "sessions"), nil
}

func (s *FileStore) path(id string) string { return filepath.Join(s.dir, id+".json") }

// load reads the session at path. Missing files yield nil, nil.
func load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	sess := new(Session)
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", filepath.Base(path), err)
	}
	return sess, nil
}

func remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	sess, err := load(s.path(id))
	s.mu.RUnlock()
	if err != nil || sess == nil {
		return nil, err
	}
	if sess.IsExpired() {
		return nil, s.Delete(context.Background(), id)
	}
	return sess, nil
}

func (s *FileStore) Set(_ context.Context, sess *Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := renameio.WriteFile(s.path(sess.ID), data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return remove(s.path(id))
}

// Cleanup removes expired session files. Files that cannot be read or
// decoded are left alone.
func (s *FileStore) Cleanup(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	for _, p := range paths {
		if sess, err := load(p); err == nil && sess != nil && sess.IsExpired() {
			if err := remove(p); err != nil {
				return err
			}
		}
	}
	return nil
}

var _ Store = (*FileStore)(nil)

// cliSessionID names the single session file the CLI logs into.
const cliSessionID = "spotify"

// CLIStore is the CLI's view of a FileStore: one session, written by
// "auth login" and refreshed in place as the token rotates.
type CLIStore struct {
	files *FileStore
}

// NewCLIStore opens the CLI session in dir ([DefaultDir] when empty).
func NewCLIStore(dir string) (*CLIStore, error) {
	files, err := NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	return &CLIStore{files: files}, nil
}

func (c *CLIStore) GetSession(ctx context.Context) (*Session, error) {
	return c.files.Get(ctx, cliSessionID)
}

// SaveSession stores sess as the CLI session, overwriting its ID.
func (c *CLIStore) SaveSession(ctx context.Context, sess *Session) error {
	sess.ID = cliSessionID
	return c.files.Set(ctx, sess)
}

func (c *CLIStore) DeleteSession(ctx context.Context) error {
	return c.files.Delete(ctx, cliSessionID)
}

// SaveToken swaps the token of the stored session after a refresh. Without
// a stored session there is nothing to update.
func (c *CLIStore) SaveToken(ctx context.Context, tok *spotify.Token) error {
	sess, err := c.GetSession(ctx)
	if sess == nil {
		return err
	}
	sess.Token = tok
	return c.SaveSession(ctx, sess)
}

// Path is the file the CLI session is stored in.
func (c *CLIStore) Path() string { return c.files.path(cliSessionID) }
