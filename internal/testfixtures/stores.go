package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/example/room-calendar/internal/persistence"
	"github.com/example/room-calendar/internal/persistence/jsonfile"
	"github.com/example/room-calendar/internal/persistence/memory"
	"github.com/example/room-calendar/internal/persistence/redisstore"
	"github.com/example/room-calendar/internal/persistence/sqlite"
)

// StoreHarness names a ready-to-use store backend.
type StoreHarness struct {
	Name  string
	Store persistence.Store
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(tb testing.TB) *memory.Store {
	tb.Helper()
	return memory.New()
}

// NewJSONStore returns a JSON file store rooted in a temporary directory.
func NewJSONStore(tb testing.TB) *jsonfile.Store {
	tb.Helper()
	return jsonfile.New(filepath.Join(tb.TempDir(), "data"))
}

// NewSQLiteStore opens and migrates a temporary SQLite database. Writes are
// stamped by clock when it is non-nil. The store is closed on test cleanup.
func NewSQLiteStore(tb testing.TB, clock *Clock) *sqlite.Store {
	tb.Helper()

	config := sqlite.DefaultConfig(filepath.Join(tb.TempDir(), "calendar.db"))
	if clock != nil {
		config.Now = clock.Now
	}

	store, err := sqlite.OpenWithConfig(config)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() { _ = store.Close() })

	if err := store.Migrate(context.Background()); err != nil {
		tb.Fatalf("failed to migrate storage: %v", err)
	}
	return store
}

// NewRedisStore starts an in-process Redis server and returns a store bound
// to it along with the server for direct inspection.
func NewRedisStore(tb testing.TB) (*redisstore.Store, *miniredis.Miniredis) {
	tb.Helper()

	server := miniredis.RunT(tb)
	client := redisstore.NewClient(redisstore.Options{Address: server.Addr()})
	store := redisstore.New(client, "calendar:")
	tb.Cleanup(func() { _ = store.Close() })
	return store, server
}

// AllStores returns one harness per supported backend.
func AllStores(tb testing.TB) []StoreHarness {
	tb.Helper()

	redisStore, _ := NewRedisStore(tb)
	return []StoreHarness{
		{Name: "memory", Store: NewMemoryStore(tb)},
		{Name: "json", Store: NewJSONStore(tb)},
		{Name: "sqlite", Store: NewSQLiteStore(tb, nil)},
		{Name: "redis", Store: redisStore},
	}
}
