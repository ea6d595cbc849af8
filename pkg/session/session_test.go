package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/setlistgen/pkg/integrations/spotify"
)

func testSession(t *testing.T, ttl time.Duration) *Session {
	t.Helper()
	sess, err := New(
		&spotify.Token{AccessToken: "access", RefreshToken: "refresh", ExpiresAt: time.Now().Add(time.Hour).Round(0)},
		&spotify.User{ID: "dj", DisplayName: "DJ Test"},
		ttl,
	)
	if err != nil {
		t.Fatal(err)
	}
	return sess
}

func TestNew(t *testing.T) {
	sess := testSession(t, time.Hour)
	if len(sess.ID) != 43 {
		t.Errorf("ID length = %d, want 43", len(sess.ID))
	}
	if sess.IsExpired() {
		t.Error("fresh session is expired")
	}
	if got := sess.UserID(); got != "spotify:dj" {
		t.Errorf("UserID = %q", got)
	}
	var nilSess *Session
	if nilSess.UserID() != "" {
		t.Error("nil session has a user id")
	}

	other := testSession(t, time.Hour)
	if other.ID == sess.ID {
		t.Error("GenerateID returned duplicate ids")
	}
}

// storeFactories returns every Store implementation under test.
func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"file": func(t *testing.T) Store {
			s, err := NewFileStore(t.TempDir())
			if err != nil {
				t.Fatal(err)
			}
			return s
		},
		"redis": func(t *testing.T) Store {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { client.Close() })
			return NewRedisStore(client, "test:")
		},
	}
}

func TestStores(t *testing.T) {
	ctx := context.Background()
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			sess := testSession(t, time.Hour)
			sess.ExpiresAt = sess.ExpiresAt.Round(0)
			sess.CreatedAt = sess.CreatedAt.Round(0)

			got, err := store.Get(ctx, sess.ID)
			if err != nil || got != nil {
				t.Fatalf("Get before Set = %v, %v", got, err)
			}

			if err := store.Set(ctx, sess); err != nil {
				t.Fatalf("Set: %v", err)
			}
			got, err = store.Get(ctx, sess.ID)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if diff := cmp.Diff(sess, got, cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) })); diff != "" {
				t.Errorf("session mismatch (-want +got):\n%s", diff)
			}

			if err := store.Delete(ctx, sess.ID); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if got, _ := store.Get(ctx, sess.ID); got != nil {
				t.Error("session still present after Delete")
			}
			if err := store.Cleanup(ctx); err != nil {
				t.Errorf("Cleanup: %v", err)
			}
		})
	}
}

func TestStoresExpired(t *testing.T) {
	ctx := context.Background()
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			if name == "redis" {
				t.Skip("redis evicts expired keys itself")
			}
			store := newStore(t)
			sess := testSession(t, -time.Minute)
			if err := store.Set(ctx, sess); err != nil {
				t.Fatal(err)
			}
			got, err := store.Get(ctx, sess.ID)
			if err != nil || got != nil {
				t.Errorf("Get expired = %v, %v; want nil, nil", got, err)
			}
		})
	}
}

func TestMemoryCleanup(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sess := testSession(t, -time.Minute)
	_ = store.Set(ctx, sess)
	if err := store.Cleanup(ctx); err != nil {
		t.Fatal(err)
	}
	if len(store.sessions) != 0 {
		t.Errorf("Cleanup kept %d sessions", len(store.sessions))
	}
}

func TestFileStoreCleanup(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	live, dead := testSession(t, time.Hour), testSession(t, -time.Minute)
	_ = store.Set(ctx, live)
	_ = store.Set(ctx, dead)

	if err := store.Cleanup(ctx); err != nil {
		t.Fatal(err)
	}
	if got, _ := store.Get(ctx, live.ID); got == nil {
		t.Error("Cleanup removed a live session")
	}
	if got, _ := store.Get(ctx, dead.ID); got != nil {
		t.Error("Cleanup kept an expired session")
	}
}

func TestCLIStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewCLIStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := store.SaveToken(ctx, &spotify.Token{AccessToken: "x"}); err != nil {
		t.Errorf("SaveToken without session: %v", err)
	}

	if err := store.SaveSession(ctx, testSession(t, time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveToken(ctx, &spotify.Token{AccessToken: "new", RefreshToken: "r2"}); err != nil {
		t.Fatal(err)
	}

	sess, err := store.GetSession(ctx)
	if err != nil || sess == nil {
		t.Fatalf("GetSession = %v, %v", sess, err)
	}
	if sess.ID != cliSessionID || sess.Token.AccessToken != "new" {
		t.Errorf("session = %+v", sess)
	}
	if want := dir + "/spotify.json"; store.Path() != want {
		t.Errorf("Path = %q, want %q", store.Path(), want)
	}

	if err := store.DeleteSession(ctx); err != nil {
		t.Fatal(err)
	}
	if sess, _ := store.GetSession(ctx); sess != nil {
		t.Error("session survived DeleteSession")
	}
}

func TestStateStores(t *testing.T) {
	ctx := context.Background()
	stores := map[string]func(t *testing.T) StateStore{
		"memory": func(t *testing.T) StateStore { return NewMemoryStateStore() },
		"redis": func(t *testing.T) StateStore {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { client.Close() })
			return NewRedisStateStore(client, "")
		},
	}
	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			state, err := store.Generate(ctx, DefaultStateTTL)
			if err != nil {
				t.Fatal(err)
			}
			if ok, err := store.Validate(ctx, state); !ok || err != nil {
				t.Errorf("first Validate = %v, %v", ok, err)
			}
			if ok, _ := store.Validate(ctx, state); ok {
				t.Error("state accepted twice")
			}
			if ok, _ := store.Validate(ctx, "forged"); ok {
				t.Error("unknown state accepted")
			}
			if err := store.Cleanup(ctx); err != nil {
				t.Errorf("Cleanup: %v", err)
			}
		})
	}
}

func TestMemoryStateExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStateStore()
	state, _ := store.Generate(ctx, -time.Second)
	if ok, _ := store.Validate(ctx, state); ok {
		t.Error("expired state accepted")
	}
}

func TestRedisStateExpiry(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStateStore(client, "")
	state, err := store.Generate(ctx, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	mr.FastForward(2 * time.Minute)
	if ok, _ := store.Validate(ctx, state); ok {
		t.Error("expired state accepted")
	}
}
