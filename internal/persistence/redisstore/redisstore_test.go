package redisstore

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/example/room-calendar/internal/persistence"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	store := New(NewClient(Options{Address: server.Addr()}), "calendar:")
	t.Cleanup(func() { _ = store.Close() })
	return store, server
}

func TestStore_WriteUsesPrefixedKey(t *testing.T) {
	ctx := context.Background()
	store, server := newTestStore(t)

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	if err := store.Write(ctx, "events", []persistence.Record{{"name": "Offsite"}}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	raw, err := server.Get("calendar:events")
	if err != nil {
		t.Fatalf("expected prefixed key: %v", err)
	}
	if raw != `[{"name":"Offsite"}]` {
		t.Fatalf("unexpected payload: %s", raw)
	}
}

func TestStore_CorruptPayload(t *testing.T) {
	ctx := context.Background()
	store, server := newTestStore(t)

	if err := server.Set(store.Key("bookings"), "not json"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if _, err := store.Read(ctx, "bookings"); !errors.Is(err, persistence.ErrStoreRead) {
		t.Fatalf("expected store read error, got %v", err)
	}
}

func TestStore_ServerErrors(t *testing.T) {
	ctx := context.Background()
	store, server := newTestStore(t)
	server.SetError("ERR server unavailable")

	if _, err := store.Read(ctx, "bookings"); !errors.Is(err, persistence.ErrStoreRead) {
		t.Fatalf("expected store read error, got %v", err)
	}
	if err := store.Write(ctx, "bookings", nil); !errors.Is(err, persistence.ErrStoreWrite) {
		t.Fatalf("expected store write error, got %v", err)
	}
}
