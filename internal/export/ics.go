package export

import (
	"fmt"
	"io"
	"strings"

	ical "github.com/arran4/golang-ical"

	"github.com/example/room-calendar/internal/scheduler"
)

// ICS writes bookings as a VCALENDAR. Bookings without times become all-day
// events whose DTEND is the day after EndDate.
func ICS(w io.Writer, bookings []scheduler.Booking, opts Options) error {
	opts = opts.withDefaults()

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(opts.ProductID)

	stamp := opts.Now().UTC()
	for _, b := range bookings {
		event := cal.AddEvent(UID(b))
		event.SetDtStampTime(stamp)
		event.SetSummary(b.SubjectID)
		if b.ResourceID != "" {
			event.SetLocation(b.ResourceID)
		}
		if description := describe(b); description != "" {
			event.SetDescription(description)
		}

		if b.AllDay() {
			start, end, err := scheduler.Dates(b)
			if err != nil {
				return fmt.Errorf("export %q: %w", b.SubjectID, err)
			}
			event.SetAllDayStartAt(start)
			event.SetAllDayEndAt(end.AddDate(0, 0, 1))
			continue
		}

		start, end, err := scheduler.Window(b)
		if err != nil {
			return fmt.Errorf("export %q: %w", b.SubjectID, err)
		}
		event.SetStartAt(localize(start, opts.Location))
		event.SetEndAt(localize(end, opts.Location))
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("write calendar: %w", err)
	}
	return nil
}

func describe(b scheduler.Booking) string {
	var lines []string
	if b.ContactKey != "" {
		lines = append(lines, "Contact: "+b.ContactKey)
	}
	for _, key := range metadataKeys([]scheduler.Booking{b}) {
		lines = append(lines, key+": "+b.Metadata[key])
	}
	return strings.Join(lines, "\n")
}
