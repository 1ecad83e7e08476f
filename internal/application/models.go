package application

import (
	"log/slog"
	"time"

	"github.com/example/room-calendar/internal/scheduler"
)

// Result is the business outcome of a mutating scheduling operation.
//
// Conflict and NotFound are ordinary outcomes, not errors: exactly one of
// Booking (success), Conflict or NotFound is meaningful.
type Result struct {
	Booking  scheduler.Booking
	Conflict *scheduler.Conflict
	NotFound bool
}

// OK reports whether the operation was applied.
func (r Result) OK() bool {
	return r.Conflict == nil && !r.NotFound
}

// Outcome returns a stable label for logs and metrics.
func (r Result) Outcome() string {
	switch {
	case r.Conflict != nil:
		return "conflict"
	case r.NotFound:
		return "not_found"
	default:
		return "ok"
	}
}

// Err converts a rejected outcome into ErrNotFound or a *ConflictError.
func (r Result) Err() error {
	switch {
	case r.Conflict != nil:
		return &ConflictError{With: r.Conflict.With}
	case r.NotFound:
		return ErrNotFound
	default:
		return nil
	}
}

// Room is a bookable room listed in the catalog.
type Room struct {
	Name      string
	Location  string
	Capacity  int
	Amenities string
	Status    string
}

// MetricsRecorder receives one observation per completed service call.
type MetricsRecorder interface {
	ObserveOperation(kind, operation, outcome string, elapsed time.Duration)
}

// RepositoryOptions tunes BookingRepository behavior.
type RepositoryOptions struct {
	// StrictReads propagates store read failures instead of treating the
	// collection as empty.
	StrictReads bool
	Logger      *slog.Logger
}

// ServiceOptions carries the optional collaborators of SchedulingService.
type ServiceOptions struct {
	Validator   *scheduler.Validator
	Rooms       *RoomCatalog
	IDGenerator func() string
	Logger      *slog.Logger
	Metrics     MetricsRecorder
}
