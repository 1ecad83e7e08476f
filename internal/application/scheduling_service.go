package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/example/room-calendar/internal/scheduler"
)

// SchedulingService is the only writer of bookings. Each call runs a complete
// read, conflict-scan and write cycle while holding the service lock, so two
// callers sharing a service cannot both pass the scan for the same slot.
type SchedulingService struct {
	mu          sync.Mutex
	repo        *BookingRepository
	validator   scheduler.Validator
	rooms       *RoomCatalog
	idGenerator func() string
	logger      *slog.Logger
	metrics     MetricsRecorder
}

// NewSchedulingService wires the repository with optional collaborators.
func NewSchedulingService(repo *BookingRepository, opts ServiceOptions) *SchedulingService {
	validator := scheduler.DefaultValidator()
	if opts.Validator != nil {
		validator = *opts.Validator
	}
	return &SchedulingService{
		repo:        repo,
		validator:   validator,
		rooms:       opts.Rooms,
		idGenerator: opts.IDGenerator,
		logger:      defaultLogger(opts.Logger),
		metrics:     opts.Metrics,
	}
}

func (s *SchedulingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	attrs = append([]any{"kind", s.repo.Kind().Name}, attrs...)
	return serviceLogger(ctx, s.logger, "SchedulingService", operation, attrs...)
}

// observe logs and records the outcome of a mutating call.
func (s *SchedulingService) observe(ctx context.Context, logger *slog.Logger, operation string, started time.Time, result Result, err error) {
	outcome := result.Outcome()
	switch {
	case err != nil:
		outcome = ErrorKind(err)
		logger.ErrorContext(ctx, "booking operation failed", "error", err, "error_kind", outcome)
	case result.Conflict != nil:
		logger.InfoContext(ctx, "booking rejected",
			"outcome", outcome,
			"conflict_subject", result.Conflict.With.SubjectID,
			"conflict_start", result.Conflict.With.StartDate,
		)
	case result.NotFound:
		logger.InfoContext(ctx, "booking not found", "outcome", outcome)
	default:
		logger.InfoContext(ctx, "booking applied", "outcome", outcome, "booking_id", result.Booking.ID)
	}
	if s.metrics != nil {
		s.metrics.ObserveOperation(s.repo.Kind().Name, operation, outcome, time.Since(started))
	}
}

// Create persists b unless it conflicts with a stored booking.
func (s *SchedulingService) Create(ctx context.Context, b scheduler.Booking) (result Result, err error) {
	if s == nil || s.repo == nil {
		return Result{}, fmt.Errorf("SchedulingService is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	logger := s.loggerWith(ctx, "Create", "subject", b.SubjectID, "resource", b.ResourceID)
	defer func() { s.observe(ctx, logger, "create", started, result, err) }()

	if err = ValidateBooking(s.repo.Kind(), b); err != nil {
		return Result{}, err
	}
	if err = s.ensureRoomExists(ctx, b); err != nil {
		return Result{}, err
	}

	existing, err := s.repo.Load(ctx)
	if err != nil {
		return Result{}, err
	}

	conflict, err := s.validator.FirstConflict(existing, b, nil)
	if err != nil {
		return Result{}, err
	}
	if conflict != nil {
		return Result{Conflict: conflict}, nil
	}

	created := b.Clone()
	if created.ID == "" && s.idGenerator != nil {
		created.ID = s.idGenerator()
	}

	if err = s.repo.Append(ctx, created); err != nil {
		return Result{}, err
	}
	return Result{Booking: created}, nil
}

// Update replaces old with updated unless updated conflicts with a booking
// other than old. The replacement keeps old's position in the collection.
func (s *SchedulingService) Update(ctx context.Context, old, updated scheduler.Booking) (result Result, err error) {
	if s == nil || s.repo == nil {
		return Result{}, fmt.Errorf("SchedulingService is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	logger := s.loggerWith(ctx, "Update", "subject", updated.SubjectID, "resource", updated.ResourceID)
	defer func() { s.observe(ctx, logger, "update", started, result, err) }()

	if err = ValidateBooking(s.repo.Kind(), updated); err != nil {
		return Result{}, err
	}

	existing, err := s.repo.Load(ctx)
	if err != nil {
		return Result{}, err
	}

	idx := IndexOf(existing, old)
	if idx < 0 {
		return Result{NotFound: true}, nil
	}

	if err = s.ensureRoomExists(ctx, updated); err != nil {
		return Result{}, err
	}

	replacement := updated.Clone()
	if replacement.ID == "" {
		replacement.ID = old.ID
	}

	conflict, err := s.validator.FirstConflict(existing, replacement, func(i int) bool { return i == idx })
	if err != nil {
		return Result{}, err
	}
	if conflict != nil {
		return Result{Conflict: conflict}, nil
	}

	if err = s.repo.Replace(ctx, old, replacement); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Result{NotFound: true}, nil
		}
		return Result{}, err
	}
	return Result{Booking: replacement}, nil
}

// Delete removes the first stored booking equal to b.
func (s *SchedulingService) Delete(ctx context.Context, b scheduler.Booking) (result Result, err error) {
	if s == nil || s.repo == nil {
		return Result{}, fmt.Errorf("SchedulingService is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	logger := s.loggerWith(ctx, "Delete", "subject", b.SubjectID, "resource", b.ResourceID)
	defer func() { s.observe(ctx, logger, "delete", started, result, err) }()

	if _, err = s.repo.Load(ctx); err != nil {
		return Result{}, err
	}
	if err = s.repo.Remove(ctx, b); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Result{NotFound: true}, nil
		}
		return Result{}, err
	}
	return Result{Booking: b.Clone()}, nil
}

// IsDateOccupied reports whether any booking covers day.
func (s *SchedulingService) IsDateOccupied(ctx context.Context, day time.Time) (bool, error) {
	bookings, err := s.OnDate(ctx, day)
	if err != nil {
		return false, err
	}
	return len(bookings) > 0, nil
}

// FirstBookingOn returns the first stored booking covering day.
func (s *SchedulingService) FirstBookingOn(ctx context.Context, day time.Time) (scheduler.Booking, bool, error) {
	bookings, err := s.OnDate(ctx, day)
	if err != nil {
		return scheduler.Booking{}, false, err
	}
	if len(bookings) == 0 {
		return scheduler.Booking{}, false, nil
	}
	return bookings[0], true, nil
}

// List returns every stored booking.
func (s *SchedulingService) List(ctx context.Context) ([]scheduler.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.All(ctx)
}

// OnDate returns bookings covering day.
func (s *SchedulingService) OnDate(ctx context.Context, day time.Time) ([]scheduler.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.OnDate(ctx, day)
}

// ByResource returns bookings reserved against resourceID.
func (s *SchedulingService) ByResource(ctx context.Context, resourceID string) ([]scheduler.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.ByResource(ctx, resourceID)
}

// InRange returns bookings intersecting the inclusive date range.
func (s *SchedulingService) InRange(ctx context.Context, from, to time.Time) ([]scheduler.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.InRange(ctx, from, to)
}

// InMonth returns bookings starting within the month that begins at monthStart.
func (s *SchedulingService) InMonth(ctx context.Context, monthStart time.Time) ([]scheduler.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.InMonth(ctx, monthStart)
}

// NextDays returns bookings starting within n days from day, day included.
func (s *SchedulingService) NextDays(ctx context.Context, day time.Time, n int) ([]scheduler.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.NextDays(ctx, day, n)
}

// WithinHours returns bookings on day contained in the [from, to] hour window.
func (s *SchedulingService) WithinHours(ctx context.Context, day time.Time, from, to string) ([]scheduler.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.WithinHours(ctx, day, from, to)
}

func (s *SchedulingService) ensureRoomExists(ctx context.Context, b scheduler.Booking) error {
	if s.rooms == nil || b.ResourceID == "" || !s.repo.Kind().RequireResource {
		return nil
	}
	rooms, err := s.rooms.All(ctx)
	if err != nil {
		return err
	}
	if len(rooms) == 0 {
		return nil
	}
	name := strings.TrimSpace(b.ResourceID)
	for _, room := range rooms {
		if room.Name == name {
			return nil
		}
	}
	vErr := &ValidationError{}
	vErr.add("resource_id", "room does not exist")
	return vErr
}
