package testfixtures

import (
	"fmt"
	"maps"
	"sync/atomic"
	"time"

	"github.com/example/room-calendar/internal/application"
	"github.com/example/room-calendar/internal/scheduler"
)

var (
	bookingCounter uint64
	roomCounter    uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate returns ReferenceTime formatted as a booking date.
func ReferenceDate() string {
	return scheduler.FormatDate(referenceTime)
}

// ---------------------------- Booking fixtures ----------------------------

// BookingOption configures a generated booking.
type BookingOption func(*scheduler.Booking)

// NewBooking returns a one-hour room reservation on ReferenceDate with a
// unique subject and contact. Options override any field.
func NewBooking(opts ...BookingOption) scheduler.Booking {
	idx := atomic.AddUint64(&bookingCounter, 1)
	b := scheduler.Booking{
		SubjectID:  fmt.Sprintf("Requester %03d", idx),
		ResourceID: "Room A",
		StartDate:  ReferenceDate(),
		EndDate:    ReferenceDate(),
		StartTime:  "09:00",
		EndTime:    "10:00",
		ContactKey: fmt.Sprintf("requester-%03d@example.com", idx),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// NewEvent returns an all-day event on ReferenceDate without a resource.
func NewEvent(opts ...BookingOption) scheduler.Booking {
	idx := atomic.AddUint64(&bookingCounter, 1)
	b := scheduler.Booking{
		SubjectID: fmt.Sprintf("Event %03d", idx),
		StartDate: ReferenceDate(),
		EndDate:   ReferenceDate(),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// WithID sets the booking ID.
func WithID(id string) BookingOption {
	return func(b *scheduler.Booking) { b.ID = id }
}

// WithSubject sets the subject.
func WithSubject(subject string) BookingOption {
	return func(b *scheduler.Booking) { b.SubjectID = subject }
}

// WithResource sets the resource. An empty value makes the booking resource-less.
func WithResource(resource string) BookingOption {
	return func(b *scheduler.Booking) { b.ResourceID = resource }
}

// WithContact sets the contact key.
func WithContact(contact string) BookingOption {
	return func(b *scheduler.Booking) { b.ContactKey = contact }
}

// OnDate places the booking on a single date.
func OnDate(date string) BookingOption {
	return func(b *scheduler.Booking) {
		b.StartDate = date
		b.EndDate = date
	}
}

// WithDates sets an inclusive date range.
func WithDates(start, end string) BookingOption {
	return func(b *scheduler.Booking) {
		b.StartDate = start
		b.EndDate = end
	}
}

// WithTimes sets the time-of-day window.
func WithTimes(start, end string) BookingOption {
	return func(b *scheduler.Booking) {
		b.StartTime = start
		b.EndTime = end
	}
}

// AllDay clears both times.
func AllDay() BookingOption {
	return WithTimes("", "")
}

// WithMetadata merges extra attributes into the booking.
func WithMetadata(metadata map[string]string) BookingOption {
	return func(b *scheduler.Booking) {
		if b.Metadata == nil {
			b.Metadata = make(map[string]string, len(metadata))
		}
		maps.Copy(b.Metadata, metadata)
	}
}

// ----------------------------- Room fixtures -----------------------------

// RoomOption configures a generated room.
type RoomOption func(*application.Room)

// NewRoom returns a deterministic catalog room with optional overrides.
func NewRoom(opts ...RoomOption) application.Room {
	idx := atomic.AddUint64(&roomCounter, 1)
	room := application.Room{
		Name:     fmt.Sprintf("Room %03d", idx),
		Location: "Main Office",
		Capacity: int(4 + idx%4),
		Status:   "available",
	}
	for _, opt := range opts {
		opt(&room)
	}
	return room
}

// WithRoomName overrides the generated room name.
func WithRoomName(name string) RoomOption {
	return func(r *application.Room) { r.Name = name }
}

// WithRoomCapacity overrides the generated capacity.
func WithRoomCapacity(capacity int) RoomOption {
	return func(r *application.Room) { r.Capacity = capacity }
}

// WithRoomAmenities sets the amenities description.
func WithRoomAmenities(amenities string) RoomOption {
	return func(r *application.Room) { r.Amenities = amenities }
}
