package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/matzehuels/setlistgen/pkg/errors"
	"github.com/matzehuels/setlistgen/pkg/setlist"
)

// MemoryStore keeps setlists in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	setlists map[string]memEntry
	ttl      time.Duration
	now      func() time.Time
}

type memEntry struct {
	s       *setlist.Setlist
	expires time.Time // zero when the store has no TTL
}

func (e memEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

// NewMemoryStore creates an empty store that keeps setlists until deleted.
func NewMemoryStore() *MemoryStore {
	return NewExpiringMemoryStore(0)
}

// NewExpiringMemoryStore creates an empty store that drops setlists ttl
// after they were saved. A ttl <= 0 keeps them forever.
func NewExpiringMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{setlists: make(map[string]memEntry), ttl: ttl, now: time.Now}
}

func (m *MemoryStore) Save(_ context.Context, s *setlist.Setlist) error {
	if s.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "setlist has no id")
	}
	cp := *s
	now := m.now()
	e := memEntry{s: &cp}
	if m.ttl > 0 {
		e.expires = now.Add(m.ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ttl > 0 {
		for id, old := range m.setlists {
			if old.expired(now) {
				delete(m.setlists, id)
			}
		}
	}
	m.setlists[s.ID] = e
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*setlist.Setlist, error) {
	m.mu.RLock()
	e, ok := m.setlists[id]
	m.mu.RUnlock()
	if !ok || e.expired(m.now()) {
		return nil, errors.New(errors.ErrCodeSetlistNotFound, "setlist %s not found", id)
	}
	cp := *e.s
	return &cp, nil
}

func (m *MemoryStore) List(_ context.Context, owner string) ([]*setlist.Setlist, error) {
	now := m.now()
	m.mu.RLock()
	var out []*setlist.Setlist
	for _, e := range m.setlists {
		if e.s.Owner == owner && !e.expired(now) {
			cp := *e.s
			out = append(out, &cp)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b *setlist.Setlist) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(out) > DefaultListLimit {
		out = out[:DefaultListLimit]
	}
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.setlists[id]
	if !ok || e.s.Owner != owner || e.expired(m.now()) {
		return errors.New(errors.ErrCodeSetlistNotFound, "setlist %s not found", id)
	}
	delete(m.setlists, id)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

var _ SetlistStore = (*MemoryStore)(nil)
