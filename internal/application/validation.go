package application

import (
	"fmt"
	"sort"
	"strings"

	"github.com/example/room-calendar/internal/persistence"
	"github.com/example/room-calendar/internal/scheduler"
)

// ValidateBooking checks a candidate booking against the rules of its kind.
// It returns nil or a *ValidationError; callers at the input boundary use it
// to reject malformed requests before they reach SchedulingService.
func ValidateBooking(kind persistence.Kind, b scheduler.Booking) error {
	vErr := &ValidationError{}

	if strings.TrimSpace(b.SubjectID) == "" {
		vErr.add("subject_id", "subject is required")
	}
	if kind.RequireResource && strings.TrimSpace(b.ResourceID) == "" {
		vErr.add("resource_id", "resource is required")
	}
	vErr.merge(validateLayout(kind.Schema, b))

	startDay, startErr := scheduler.ParseDate("start_date", b.StartDate)
	if strings.TrimSpace(b.StartDate) == "" {
		vErr.add("start_date", "start date is required")
	} else if startErr != nil {
		vErr.add("start_date", "start date must be YYYY-MM-DD")
	}

	endDay, endErr := scheduler.ParseDate("end_date", b.EndDate)
	if strings.TrimSpace(b.EndDate) == "" {
		vErr.add("end_date", "end date is required")
	} else if endErr != nil {
		vErr.add("end_date", "end date must be YYYY-MM-DD")
	}

	if startErr == nil && endErr == nil {
		if endDay.Before(startDay) {
			vErr.add("end_date", "end date must not be before start date")
		}
		if kind.SingleDay() && !endDay.Equal(startDay) {
			vErr.add("end_date", "end date must equal start date")
		}
	}

	vErr.merge(validateTimes(kind, b, startErr == nil && endErr == nil && startDay.Equal(endDay)))

	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

// validateLayout rejects values the kind's record layout cannot store.
func validateLayout(schema persistence.Schema, b scheduler.Booking) *ValidationError {
	vErr := &ValidationError{}
	if schema.Resource == "" && b.ResourceID != "" {
		vErr.add("resource_id", "resources are not supported for this kind")
	}
	if schema.Contact == "" && b.ContactKey != "" {
		vErr.add("contact_key", "contacts are not supported for this kind")
	}
	if schema.ID == "" && b.ID != "" {
		vErr.add("id", "ids are not supported for this kind")
	}
	keys := make([]string, 0, len(b.Metadata))
	for key := range b.Metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if schema.Reserved(key) {
			vErr.add("metadata", fmt.Sprintf("metadata key %q is reserved", key))
		}
	}
	return vErr
}

func validateTimes(kind persistence.Kind, b scheduler.Booking, sameDay bool) *ValidationError {
	vErr := &ValidationError{}
	hasStart := strings.TrimSpace(b.StartTime) != ""
	hasEnd := strings.TrimSpace(b.EndTime) != ""

	if !kind.AllowTimes {
		if hasStart {
			vErr.add("start_time", "times are not supported for this kind")
		}
		if hasEnd {
			vErr.add("end_time", "times are not supported for this kind")
		}
		return vErr
	}

	if kind.RequireTimes {
		if !hasStart {
			vErr.add("start_time", "start time is required")
		}
		if !hasEnd {
			vErr.add("end_time", "end time is required")
		}
	}

	start, startErr := scheduler.ParseClock("start_time", b.StartTime)
	if hasStart && startErr != nil {
		vErr.add("start_time", "start time must be HH:MM")
	}
	end, endErr := scheduler.ParseClock("end_time", b.EndTime)
	if hasEnd && endErr != nil {
		vErr.add("end_time", "end time must be HH:MM")
	}

	if sameDay && hasStart && hasEnd && startErr == nil && endErr == nil && end < start {
		vErr.add("time", "end time must not be before start time")
	}
	return vErr
}
