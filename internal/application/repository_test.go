package application

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/example/room-calendar/internal/persistence"
	"github.com/example/room-calendar/internal/persistence/memory"
	"github.com/example/room-calendar/internal/scheduler"
)

func day(value string) time.Time {
	d, err := time.Parse(scheduler.DateLayout, value)
	if err != nil {
		panic(err)
	}
	return d
}

func seedBookings(t *testing.T, store *memory.Store, kind persistence.Kind, bookings ...scheduler.Booking) {
	t.Helper()
	if err := store.Write(context.Background(), kind.Store, kind.Schema.EncodeAll(bookings)); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
}

func subjects(bookings []scheduler.Booking) string {
	names := make([]string, len(bookings))
	for i, b := range bookings {
		names[i] = b.SubjectID
	}
	return strings.Join(names, ",")
}

func TestBookingRepository_Queries(t *testing.T) {
	t.Parallel()

	store := memory.New()
	seedBookings(t, store, persistence.KindRooms,
		scheduler.Booking{SubjectID: "A", ResourceID: "R1", StartDate: "2024-03-01", EndDate: "2024-03-01", StartTime: "09:00", EndTime: "10:00"},
		scheduler.Booking{SubjectID: "B", ResourceID: "R2", StartDate: "2024-03-01", EndDate: "2024-03-03", StartTime: "13:00", EndTime: "15:00"},
		scheduler.Booking{SubjectID: "C", ResourceID: "R1", StartDate: "2024-03-05", EndDate: "2024-03-05", StartTime: "08:00", EndTime: "12:30"},
		scheduler.Booking{SubjectID: "D", ResourceID: "R1", StartDate: "2024-04-01", EndDate: "2024-04-01", StartTime: "10:00", EndTime: "11:00"},
	)
	repo := NewBookingRepository(store, persistence.KindRooms, RepositoryOptions{})
	ctx := context.Background()

	tests := []struct {
		name  string
		query func() ([]scheduler.Booking, error)
		want  string
	}{
		{name: "all keeps stored order", query: func() ([]scheduler.Booking, error) { return repo.All(ctx) }, want: "A,B,C,D"},
		{name: "by resource", query: func() ([]scheduler.Booking, error) { return repo.ByResource(ctx, "R1") }, want: "A,C,D"},
		{name: "on date inside a range", query: func() ([]scheduler.Booking, error) { return repo.OnDate(ctx, day("2024-03-02")) }, want: "B"},
		{name: "on date with several", query: func() ([]scheduler.Booking, error) { return repo.OnDate(ctx, day("2024-03-01")) }, want: "A,B"},
		{name: "in range intersects", query: func() ([]scheduler.Booking, error) {
			return repo.InRange(ctx, day("2024-03-03"), day("2024-03-05"))
		}, want: "B,C"},
		{name: "in month", query: func() ([]scheduler.Booking, error) { return repo.InMonth(ctx, day("2024-03-17")) }, want: "A,B,C"},
		{name: "next days", query: func() ([]scheduler.Booking, error) { return repo.NextDays(ctx, day("2024-03-02"), 4) }, want: "C"},
		{name: "next zero days", query: func() ([]scheduler.Booking, error) { return repo.NextDays(ctx, day("2024-03-01"), 0) }, want: ""},
		{name: "within hours", query: func() ([]scheduler.Booking, error) {
			return repo.WithinHours(ctx, day("2024-03-01"), "08:00", "12:00")
		}, want: "A"},
	}

	for _, tt := range tests {
		got, err := tt.query()
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if subjects(got) != tt.want {
			t.Fatalf("%s: expected %q, got %q", tt.name, tt.want, subjects(got))
		}
	}
}

func TestBookingRepository_CorruptRecordFailsQuery(t *testing.T) {
	t.Parallel()

	store := memory.New()
	seedBookings(t, store, persistence.KindDateRangeEvents,
		scheduler.Booking{SubjectID: "ok", StartDate: "2024-03-01", EndDate: "2024-03-02"},
		scheduler.Booking{SubjectID: "bad", StartDate: "2024-13-01", EndDate: "2024-03-02"},
	)
	repo := NewBookingRepository(store, persistence.KindDateRangeEvents, RepositoryOptions{})

	_, err := repo.OnDate(context.Background(), day("2024-03-01"))
	var pErr *scheduler.ParseError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pErr.Field != "start_date" || pErr.Value != "2024-13-01" {
		t.Fatalf("unexpected parse error: %#v", pErr)
	}
}

func TestBookingRepository_ReadFailure(t *testing.T) {
	t.Parallel()

	t.Run("degrades to an empty collection with a warning", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		store := memory.New()
		store.ReadErr = errors.New("corrupt file")
		repo := NewBookingRepository(store, persistence.KindRooms, RepositoryOptions{
			Logger: slog.New(slog.NewJSONHandler(&buf, nil)),
		})

		got, err := repo.All(context.Background())
		if err != nil {
			t.Fatalf("expected degraded read, got %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected empty collection, got %#v", got)
		}
		if !strings.Contains(buf.String(), `"level":"WARN"`) || !strings.Contains(buf.String(), `"error_kind":"store_read"`) {
			t.Fatalf("expected warning log, got %s", buf.String())
		}
	})

	t.Run("mutations never start from a degraded read", func(t *testing.T) {
		t.Parallel()

		store := memory.New()
		seedBookings(t, store, persistence.KindRooms,
			scheduler.Booking{SubjectID: "A", ResourceID: "R1", StartDate: "2024-03-01", EndDate: "2024-03-01", StartTime: "09:00", EndTime: "10:00"},
		)
		repo := NewBookingRepository(store, persistence.KindRooms, RepositoryOptions{})
		ctx := context.Background()
		writes := store.Writes()

		store.ReadErr = errors.New("corrupt file")
		if got, err := repo.All(ctx); err != nil || len(got) != 0 {
			t.Fatalf("expected degraded read, got %#v err=%v", got, err)
		}
		if _, err := repo.Load(ctx); !errors.Is(err, persistence.ErrStoreRead) {
			t.Fatalf("expected Load to propagate, got %v", err)
		}
		next := scheduler.Booking{SubjectID: "B", ResourceID: "R1", StartDate: "2024-03-02", EndDate: "2024-03-02", StartTime: "09:00", EndTime: "10:00"}
		if err := repo.Append(ctx, next); !errors.Is(err, persistence.ErrStoreRead) {
			t.Fatalf("expected Append to propagate the read error, got %v", err)
		}
		if store.Writes() != writes {
			t.Fatalf("expected no writes, got %d", store.Writes()-writes)
		}

		store.ReadErr = nil
		got, err := repo.All(ctx)
		if err != nil || subjects(got) != "A" {
			t.Fatalf("expected stored collection to survive, got %q err=%v", subjects(got), err)
		}
	})

	t.Run("strict reads propagate", func(t *testing.T) {
		t.Parallel()

		store := memory.New()
		store.ReadErr = errors.New("corrupt file")
		repo := NewBookingRepository(store, persistence.KindRooms, RepositoryOptions{StrictReads: true})

		if _, err := repo.All(context.Background()); !errors.Is(err, persistence.ErrStoreRead) {
			t.Fatalf("expected store read error, got %v", err)
		}
	})
}

func TestBookingRepository_ByResourceTrimsNames(t *testing.T) {
	t.Parallel()

	store := memory.New()
	seedBookings(t, store, persistence.KindRooms,
		scheduler.Booking{SubjectID: "A", ResourceID: " R1", StartDate: "2024-03-01", EndDate: "2024-03-01", StartTime: "09:00", EndTime: "10:00"},
		scheduler.Booking{SubjectID: "B", ResourceID: "R1 ", StartDate: "2024-03-02", EndDate: "2024-03-02", StartTime: "09:00", EndTime: "10:00"},
		scheduler.Booking{SubjectID: "C", ResourceID: "R10", StartDate: "2024-03-03", EndDate: "2024-03-03", StartTime: "09:00", EndTime: "10:00"},
	)
	repo := NewBookingRepository(store, persistence.KindRooms, RepositoryOptions{})

	got, err := repo.ByResource(context.Background(), "R1")
	if err != nil {
		t.Fatalf("ByResource failed: %v", err)
	}
	if subjects(got) != "A,B" {
		t.Fatalf("expected A,B got %q", subjects(got))
	}
	if !scheduler.SameScope(got[0], got[1]) {
		t.Fatalf("expected listed bookings to share the conflict scope")
	}
}

func TestBookingRepository_Mutations(t *testing.T) {
	t.Parallel()

	a := scheduler.Booking{SubjectID: "A", StartDate: "2024-03-01", EndDate: "2024-03-01"}
	b := scheduler.Booking{SubjectID: "B", StartDate: "2024-03-02", EndDate: "2024-03-02"}
	dup := a.Clone()
	missing := scheduler.Booking{SubjectID: "Z", StartDate: "2024-03-09", EndDate: "2024-03-09"}

	t.Run("append loads the collection first", func(t *testing.T) {
		t.Parallel()

		store := memory.New()
		seedBookings(t, store, persistence.KindDateRangeEvents, a)
		repo := NewBookingRepository(store, persistence.KindDateRangeEvents, RepositoryOptions{})

		if err := repo.Append(context.Background(), b); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		got, _ := repo.All(context.Background())
		if subjects(got) != "A,B" {
			t.Fatalf("expected A,B got %q", subjects(got))
		}
	})

	t.Run("replace and remove touch only the first match", func(t *testing.T) {
		t.Parallel()

		store := memory.New()
		seedBookings(t, store, persistence.KindDateRangeEvents, a, b, dup)
		repo := NewBookingRepository(store, persistence.KindDateRangeEvents, RepositoryOptions{})
		ctx := context.Background()

		if _, err := repo.All(ctx); err != nil {
			t.Fatalf("All failed: %v", err)
		}
		renamed := a.Clone()
		renamed.SubjectID = "A2"
		if err := repo.Replace(ctx, a, renamed); err != nil {
			t.Fatalf("Replace failed: %v", err)
		}
		got, _ := repo.All(ctx)
		if subjects(got) != "A2,B,A" {
			t.Fatalf("expected A2,B,A got %q", subjects(got))
		}

		if err := repo.Remove(ctx, a); err != nil {
			t.Fatalf("Remove failed: %v", err)
		}
		got, _ = repo.All(ctx)
		if subjects(got) != "A2,B" {
			t.Fatalf("expected A2,B got %q", subjects(got))
		}
	})

	t.Run("missing targets report not found without writing", func(t *testing.T) {
		t.Parallel()

		store := memory.New()
		seedBookings(t, store, persistence.KindDateRangeEvents, a)
		repo := NewBookingRepository(store, persistence.KindDateRangeEvents, RepositoryOptions{})
		ctx := context.Background()
		writes := store.Writes()

		if err := repo.Replace(ctx, missing, b); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound from Replace, got %v", err)
		}
		if err := repo.Remove(ctx, missing); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound from Remove, got %v", err)
		}
		if store.Writes() != writes {
			t.Fatalf("expected no writes, got %d", store.Writes()-writes)
		}
	})

	t.Run("failed write keeps the previous snapshot", func(t *testing.T) {
		t.Parallel()

		store := memory.New()
		seedBookings(t, store, persistence.KindDateRangeEvents, a)
		repo := NewBookingRepository(store, persistence.KindDateRangeEvents, RepositoryOptions{})
		ctx := context.Background()
		if _, err := repo.All(ctx); err != nil {
			t.Fatalf("All failed: %v", err)
		}

		store.WriteErr = errors.New("disk full")
		if err := repo.Append(ctx, b); !errors.Is(err, persistence.ErrStoreWrite) {
			t.Fatalf("expected store write error, got %v", err)
		}
		store.WriteErr = nil

		if err := repo.Remove(ctx, b); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected failed append to leave the snapshot untouched, got %v", err)
		}
	})
}
