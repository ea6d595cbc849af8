// Package store persists generated setlists.
//
// Two backends implement [SetlistStore]:
//   - [MemoryStore]: process memory, for the CLI and tests
//   - [MongoStore]: a MongoDB collection, for the HTTP service
//
// Setlists are owned by the user that saved them (see session.Session.UserID);
// List and Delete are always scoped to an owner.
package store

import (
	"context"

	"github.com/matzehuels/setlistgen/pkg/setlist"
)

// DefaultListLimit caps the number of setlists returned by List.
const DefaultListLimit = 100

// SetlistStore is the interface implemented by setlist backends.
type SetlistStore interface {
	// Save inserts or replaces a setlist keyed by its ID.
	Save(ctx context.Context, s *setlist.Setlist) error

	// Get returns a setlist by ID, or a SETLIST_NOT_FOUND error.
	Get(ctx context.Context, id string) (*setlist.Setlist, error)

	// List returns the setlists of owner, newest first.
	List(ctx context.Context, owner string) ([]*setlist.Setlist, error)

	// Delete removes a setlist owned by owner. Deleting a setlist of
	// another owner reports SETLIST_NOT_FOUND.
	Delete(ctx context.Context, owner, id string) error

	// Close releases resources held by the store.
	Close() error
}
