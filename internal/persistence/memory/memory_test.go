package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/example/room-calendar/internal/persistence"
)

func TestStore_InjectedFailures(t *testing.T) {
	ctx := context.Background()
	store := New()
	boom := errors.New("disk gone")

	store.ReadErr = boom
	if _, err := store.Read(ctx, "bookings"); !errors.Is(err, persistence.ErrStoreRead) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped read error, got %v", err)
	}

	store.WriteErr = boom
	if err := store.Write(ctx, "bookings", nil); !errors.Is(err, persistence.ErrStoreWrite) {
		t.Fatalf("expected write error, got %v", err)
	}
	if store.Writes() != 0 {
		t.Fatalf("failed write must not count, got %d", store.Writes())
	}
}

func TestStore_CountsWrites(t *testing.T) {
	ctx := context.Background()
	store := New()

	for i := 0; i < 3; i++ {
		if err := store.Write(ctx, "events", []persistence.Record{{"name": "x"}}); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if store.Writes() != 3 {
		t.Fatalf("expected 3 writes, got %d", store.Writes())
	}
}
