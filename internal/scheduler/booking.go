package scheduler

import (
	"fmt"
	"maps"
	"strings"
	"time"
)

const (
	// DateLayout is the ISO-8601 calendar date layout used for stored dates.
	DateLayout = "2006-01-02"
	// ClockLayout is the 24h time-of-day layout used for stored times.
	ClockLayout = "15:04"
)

// Booking represents a reservation of a time span, optionally against a named resource.
//
// Bookings carry no synthetic key in legacy stores: two bookings are the same
// booking when every field matches (see Equal). ID is populated only for
// records created after identifiers were introduced.
type Booking struct {
	ID         string
	SubjectID  string
	ResourceID string
	StartDate  string
	EndDate    string
	StartTime  string
	EndTime    string
	ContactKey string
	Metadata   map[string]string
}

// AllDay reports whether the booking has no time-of-day bounds.
func (b Booking) AllDay() bool {
	return strings.TrimSpace(b.StartTime) == "" && strings.TrimSpace(b.EndTime) == ""
}

// Equal reports whether both bookings carry identical field values.
func (b Booking) Equal(other Booking) bool {
	if b.ID != other.ID ||
		b.SubjectID != other.SubjectID ||
		b.ResourceID != other.ResourceID ||
		b.StartDate != other.StartDate ||
		b.EndDate != other.EndDate ||
		b.StartTime != other.StartTime ||
		b.EndTime != other.EndTime ||
		b.ContactKey != other.ContactKey {
		return false
	}
	if len(b.Metadata) == 0 && len(other.Metadata) == 0 {
		return true
	}
	return maps.Equal(b.Metadata, other.Metadata)
}

// Clone returns a copy that does not share the metadata map.
func (b Booking) Clone() Booking {
	out := b
	if b.Metadata != nil {
		out.Metadata = maps.Clone(b.Metadata)
	}
	return out
}

// ParseError reports a stored date or time value that cannot be interpreted.
type ParseError struct {
	Field string
	Value string
	Err   error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("scheduler: cannot parse %s %q", e.Field, e.Value)
}

// Unwrap exposes the underlying time parsing error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ParseDate parses a YYYY-MM-DD value into midnight UTC of that day.
func ParseDate(field, value string) (time.Time, error) {
	day, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, &ParseError{Field: field, Value: value, Err: err}
	}
	return day, nil
}

// ParseClock parses an HH:MM value and returns the offset from midnight.
func ParseClock(field, value string) (time.Duration, error) {
	parsed, err := time.Parse(ClockLayout, strings.TrimSpace(value))
	if err != nil {
		return 0, &ParseError{Field: field, Value: value, Err: err}
	}
	return time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute, nil
}

// FormatDate renders a day in the stored date layout.
func FormatDate(day time.Time) string {
	return day.Format(DateLayout)
}

// endOfDay is the effective end of a booking without an end time.
const endOfDay = 23*time.Hour + 59*time.Minute + 59*time.Second

// Window returns the effective [start, end) instants covered by the booking.
// A missing start time means 00:00 and a missing end time means 23:59:59.
func Window(b Booking) (time.Time, time.Time, error) {
	startDay, err := ParseDate("start_date", b.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endDay, err := ParseDate("end_date", b.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	start := startDay
	if strings.TrimSpace(b.StartTime) != "" {
		offset, err := ParseClock("start_time", b.StartTime)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = start.Add(offset)
	}

	end := endDay.Add(endOfDay)
	if strings.TrimSpace(b.EndTime) != "" {
		offset, err := ParseClock("end_time", b.EndTime)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = endDay.Add(offset)
	}

	return start, end, nil
}

// Dates returns the inclusive calendar-day range of the booking.
func Dates(b Booking) (time.Time, time.Time, error) {
	start, err := ParseDate("start_date", b.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ParseDate("end_date", b.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}
