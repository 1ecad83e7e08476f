package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/room-calendar/internal/persistence"
	"github.com/example/room-calendar/internal/scheduler"
)

// BookingRepository is a typed view over one kind's persisted collection.
//
// Every query reloads the whole collection and every mutation rewrites it.
// Mutations apply to the snapshot taken by the most recent All call, so a
// read-modify-write cycle is not atomic against other writers of the store.
type BookingRepository struct {
	store    persistence.Store
	kind     persistence.Kind
	strict   bool
	logger   *slog.Logger
	snapshot []scheduler.Booking
	loaded   bool
}

// NewBookingRepository binds a store to a booking kind.
func NewBookingRepository(store persistence.Store, kind persistence.Kind, opts RepositoryOptions) *BookingRepository {
	return &BookingRepository{
		store:  store,
		kind:   kind,
		strict: opts.StrictReads,
		logger: defaultLogger(opts.Logger),
	}
}

// Kind returns the kind served by the repository.
func (r *BookingRepository) Kind() persistence.Kind {
	return r.kind
}

// All reloads the collection. A failed read yields an empty collection unless
// StrictReads is set.
func (r *BookingRepository) All(ctx context.Context) ([]scheduler.Booking, error) {
	return r.load(ctx, r.strict)
}

// Load reloads the collection and always reports a failed read. Mutations
// start from it so an unreadable store is never overwritten.
func (r *BookingRepository) Load(ctx context.Context) ([]scheduler.Booking, error) {
	return r.load(ctx, true)
}

func (r *BookingRepository) load(ctx context.Context, strict bool) ([]scheduler.Booking, error) {
	if r == nil || r.store == nil {
		return nil, fmt.Errorf("booking repository not configured")
	}

	records, err := r.store.Read(ctx, r.kind.Store)
	if err != nil {
		r.snapshot, r.loaded = nil, false
		if strict || !errors.Is(err, persistence.ErrStoreRead) {
			return nil, err
		}
		serviceLogger(ctx, r.logger, "BookingRepository", "All", "store", r.kind.Store).
			WarnContext(ctx, "store read failed, using empty collection", "error", err, "error_kind", ErrorKind(err))
		return []scheduler.Booking{}, nil
	}

	r.snapshot = r.kind.Schema.DecodeAll(records)
	r.loaded = true
	return cloneBookings(r.snapshot), nil
}

// ByResource returns bookings reserved against resourceID. Resource names
// compare after trimming, as in the conflict scan.
func (r *BookingRepository) ByResource(ctx context.Context, resourceID string) ([]scheduler.Booking, error) {
	resourceID = strings.TrimSpace(resourceID)
	return r.filter(ctx, func(b scheduler.Booking) (bool, error) {
		return strings.TrimSpace(b.ResourceID) == resourceID, nil
	})
}

// OnDate returns bookings whose inclusive date range contains day.
func (r *BookingRepository) OnDate(ctx context.Context, day time.Time) ([]scheduler.Booking, error) {
	day = truncateDay(day)
	return r.filter(ctx, func(b scheduler.Booking) (bool, error) {
		start, end, err := scheduler.Dates(b)
		if err != nil {
			return false, err
		}
		return !day.Before(start) && !day.After(end), nil
	})
}

// InRange returns bookings whose date range intersects [from, to].
func (r *BookingRepository) InRange(ctx context.Context, from, to time.Time) ([]scheduler.Booking, error) {
	from, to = truncateDay(from), truncateDay(to)
	return r.filter(ctx, func(b scheduler.Booking) (bool, error) {
		start, end, err := scheduler.Dates(b)
		if err != nil {
			return false, err
		}
		return !end.Before(from) && !start.After(to), nil
	})
}

// InMonth returns bookings starting within the month that begins at monthStart.
func (r *BookingRepository) InMonth(ctx context.Context, monthStart time.Time) ([]scheduler.Booking, error) {
	first := truncateDay(monthStart)
	first = time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return r.startingBetween(ctx, first, last)
}

// NextDays returns bookings starting within n days from day, day included.
func (r *BookingRepository) NextDays(ctx context.Context, day time.Time, n int) ([]scheduler.Booking, error) {
	if n <= 0 {
		return []scheduler.Booking{}, nil
	}
	first := truncateDay(day)
	return r.startingBetween(ctx, first, first.AddDate(0, 0, n-1))
}

// WithinHours returns bookings starting on day whose time window lies inside
// [from, to]. Bookings without times are excluded.
func (r *BookingRepository) WithinHours(ctx context.Context, day time.Time, from, to string) ([]scheduler.Booking, error) {
	lower, err := scheduler.ParseClock("from", from)
	if err != nil {
		return nil, err
	}
	upper, err := scheduler.ParseClock("to", to)
	if err != nil {
		return nil, err
	}
	day = truncateDay(day)

	return r.filter(ctx, func(b scheduler.Booking) (bool, error) {
		if b.StartTime == "" || b.EndTime == "" {
			return false, nil
		}
		start, err := scheduler.ParseDate("start_date", b.StartDate)
		if err != nil {
			return false, err
		}
		if !start.Equal(day) {
			return false, nil
		}
		begins, err := scheduler.ParseClock("start_time", b.StartTime)
		if err != nil {
			return false, err
		}
		ends, err := scheduler.ParseClock("end_time", b.EndTime)
		if err != nil {
			return false, err
		}
		return begins >= lower && ends <= upper, nil
	})
}

// Append adds b to the collection and persists it.
func (r *BookingRepository) Append(ctx context.Context, b scheduler.Booking) error {
	if err := r.ensureLoaded(ctx); err != nil {
		return err
	}
	next := append(cloneBookings(r.snapshot), b.Clone())
	return r.persist(ctx, next)
}

// Replace swaps the first booking equal to old with updated and persists the
// collection. It returns ErrNotFound without writing when old is absent.
func (r *BookingRepository) Replace(ctx context.Context, old, updated scheduler.Booking) error {
	if err := r.ensureLoaded(ctx); err != nil {
		return err
	}
	idx := IndexOf(r.snapshot, old)
	if idx < 0 {
		return ErrNotFound
	}
	next := cloneBookings(r.snapshot)
	next[idx] = updated.Clone()
	return r.persist(ctx, next)
}

// Remove deletes the first booking equal to b and persists the collection. It
// returns ErrNotFound without writing when b is absent.
func (r *BookingRepository) Remove(ctx context.Context, b scheduler.Booking) error {
	if err := r.ensureLoaded(ctx); err != nil {
		return err
	}
	idx := IndexOf(r.snapshot, b)
	if idx < 0 {
		return ErrNotFound
	}
	next := make([]scheduler.Booking, 0, len(r.snapshot)-1)
	next = append(next, cloneBookings(r.snapshot[:idx])...)
	next = append(next, cloneBookings(r.snapshot[idx+1:])...)
	return r.persist(ctx, next)
}

// IndexOf returns the position of the first booking equal to target, or -1.
func IndexOf(bookings []scheduler.Booking, target scheduler.Booking) int {
	for i, b := range bookings {
		if b.Equal(target) {
			return i
		}
	}
	return -1
}

func (r *BookingRepository) ensureLoaded(ctx context.Context) error {
	if r.loaded {
		return nil
	}
	_, err := r.Load(ctx)
	return err
}

func (r *BookingRepository) persist(ctx context.Context, next []scheduler.Booking) error {
	if err := r.store.Write(ctx, r.kind.Store, r.kind.Schema.EncodeAll(next)); err != nil {
		return err
	}
	r.snapshot = next
	return nil
}

func (r *BookingRepository) filter(ctx context.Context, keep func(scheduler.Booking) (bool, error)) ([]scheduler.Booking, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]scheduler.Booking, 0, len(all))
	for _, b := range all {
		ok, err := keep(b)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *BookingRepository) startingBetween(ctx context.Context, first, last time.Time) ([]scheduler.Booking, error) {
	return r.filter(ctx, func(b scheduler.Booking) (bool, error) {
		start, err := scheduler.ParseDate("start_date", b.StartDate)
		if err != nil {
			return false, err
		}
		return !start.Before(first) && !start.After(last), nil
	})
}

func cloneBookings(bookings []scheduler.Booking) []scheduler.Booking {
	out := make([]scheduler.Booking, len(bookings))
	for i, b := range bookings {
		out[i] = b.Clone()
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
