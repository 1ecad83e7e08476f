package application

import (
	"errors"
	"fmt"

	"github.com/example/room-calendar/internal/scheduler"
)

var (
	// ErrNotFound is returned when an update or delete target matches no stored booking.
	ErrNotFound = errors.New("application: not found")
	// ErrConflict is returned when a booking overlaps an existing booking for the same resource.
	ErrConflict = errors.New("application: conflict")
	// ErrAlreadyExists is returned when a catalog entry with the same name is present.
	ErrAlreadyExists = errors.New("application: already exists")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error. The first message per field wins.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, ok := v.FieldErrors[field]; ok {
		return
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// ConflictError describes the stored booking a candidate collided with.
type ConflictError struct {
	With scheduler.Booking
}

// Error implements the error interface.
func (c *ConflictError) Error() string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("application: conflict with %q on %s..%s", c.With.SubjectID, c.With.StartDate, c.With.EndDate)
}

// Is matches ErrConflict.
func (c *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
