package persistence

import (
	"fmt"
	"strings"

	"github.com/example/room-calendar/internal/scheduler"
)

// RoomsStore is the logical store holding the room catalog.
const RoomsStore = "rooms"

// Schema maps Booking fields onto the keys used by a legacy record layout.
// Keys that are not part of the schema are carried as booking metadata.
type Schema struct {
	ID        string
	Subject   string
	Resource  string
	Contact   string
	StartDate string
	EndDate   string
	// Date, when set, replaces StartDate/EndDate with a single-day key.
	Date      string
	StartTime string
	EndTime   string
}

// Kind describes one persisted collection of bookings.
type Kind struct {
	Name            string
	Store           string
	Schema          Schema
	RequireResource bool
	RequireTimes    bool
	// AllowTimes is false for kinds whose layout has no time-of-day fields.
	AllowTimes bool
}

// SingleDay reports whether bookings of this kind must start and end on one date.
func (k Kind) SingleDay() bool {
	return k.Schema.Date != ""
}

var (
	// KindRooms holds room reservations made by a named requester.
	KindRooms = Kind{
		Name:  "rooms",
		Store: "bookings",
		Schema: Schema{
			ID:        "id",
			Subject:   "fullName",
			Resource:  "roomName",
			Contact:   "email",
			StartDate: "startDate",
			EndDate:   "endDate",
			StartTime: "startTime",
			EndTime:   "endTime",
		},
		RequireResource: true,
		RequireTimes:    true,
		AllowTimes:      true,
	}

	// KindHourEvents holds single-day events bounded by start and end hours.
	KindHourEvents = Kind{
		Name:  "hour-events",
		Store: "timeline",
		Schema: Schema{
			ID:        "id",
			Subject:   "name",
			Date:      "date",
			StartTime: "startHour",
			EndTime:   "endHour",
		},
		RequireTimes: true,
		AllowTimes:   true,
	}

	// KindDayEvents holds single-day events; hours are optional.
	KindDayEvents = Kind{
		Name:  "day-events",
		Store: "day-events",
		Schema: Schema{
			ID:        "id",
			Subject:   "name",
			Date:      "date",
			StartTime: "startHour",
			EndTime:   "endHour",
		},
		AllowTimes: true,
	}

	// KindDateRangeEvents holds all-day events spanning an inclusive date range.
	KindDateRangeEvents = Kind{
		Name:  "date-range-events",
		Store: "events",
		Schema: Schema{
			ID:        "id",
			Subject:   "name",
			StartDate: "startDate",
			EndDate:   "endDate",
		},
	}
)

// Kinds lists the built-in kinds.
func Kinds() []Kind {
	return []Kind{KindRooms, KindHourEvents, KindDayEvents, KindDateRangeEvents}
}

// KindByName resolves a built-in kind.
func KindByName(name string) (Kind, error) {
	for _, kind := range Kinds() {
		if strings.EqualFold(kind.Name, strings.TrimSpace(name)) {
			return kind, nil
		}
	}
	return Kind{}, fmt.Errorf("persistence: unknown kind %q", name)
}

func (s Schema) keys() map[string]struct{} {
	keys := make(map[string]struct{}, 9)
	for _, key := range []string{s.ID, s.Subject, s.Resource, s.Contact, s.StartDate, s.EndDate, s.Date, s.StartTime, s.EndTime} {
		if key != "" {
			keys[key] = struct{}{}
		}
	}
	return keys
}

// Reserved reports whether key holds a booking field in this layout.
func (s Schema) Reserved(key string) bool {
	_, ok := s.keys()[key]
	return ok
}

// Encode renders a booking as a flat record. Empty optional fields are omitted.
func (s Schema) Encode(b scheduler.Booking) Record {
	record := make(Record, 8+len(b.Metadata))
	reserved := s.keys()
	for key, value := range b.Metadata {
		if _, ok := reserved[key]; ok {
			continue
		}
		record[key] = value
	}

	setOptional := func(key, value string) {
		if key != "" && value != "" {
			record[key] = value
		}
	}

	setOptional(s.ID, b.ID)
	if s.Subject != "" {
		record[s.Subject] = b.SubjectID
	}
	setOptional(s.Resource, b.ResourceID)
	setOptional(s.Contact, b.ContactKey)
	if s.Date != "" {
		record[s.Date] = b.StartDate
	} else {
		record[s.StartDate] = b.StartDate
		record[s.EndDate] = b.EndDate
	}
	setOptional(s.StartTime, b.StartTime)
	setOptional(s.EndTime, b.EndTime)
	return record
}

// Decode interprets a flat record as a booking. Unknown keys become metadata.
func (s Schema) Decode(record Record) scheduler.Booking {
	get := func(key string) string {
		if key == "" {
			return ""
		}
		return record[key]
	}

	b := scheduler.Booking{
		ID:         get(s.ID),
		SubjectID:  get(s.Subject),
		ResourceID: get(s.Resource),
		ContactKey: get(s.Contact),
		StartTime:  get(s.StartTime),
		EndTime:    get(s.EndTime),
	}
	if s.Date != "" {
		b.StartDate = get(s.Date)
		b.EndDate = b.StartDate
	} else {
		b.StartDate = get(s.StartDate)
		b.EndDate = get(s.EndDate)
	}

	reserved := s.keys()
	for key, value := range record {
		if _, ok := reserved[key]; ok {
			continue
		}
		if b.Metadata == nil {
			b.Metadata = make(map[string]string)
		}
		b.Metadata[key] = value
	}
	return b
}

// EncodeAll renders a booking collection preserving order.
func (s Schema) EncodeAll(bookings []scheduler.Booking) []Record {
	records := make([]Record, len(bookings))
	for i, b := range bookings {
		records[i] = s.Encode(b)
	}
	return records
}

// DecodeAll interprets a record collection preserving order.
func (s Schema) DecodeAll(records []Record) []scheduler.Booking {
	bookings := make([]scheduler.Booking, len(records))
	for i, record := range records {
		bookings[i] = s.Decode(record)
	}
	return bookings
}
