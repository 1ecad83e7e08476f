// Package export renders booking collections for calendar clients and
// spreadsheets.
package export

import (
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/example/room-calendar/internal/scheduler"
)

// Options tunes both exporters.
type Options struct {
	// Location interprets stored dates and times. Defaults to UTC.
	Location *time.Location
	// Now stamps generated documents. Defaults to time.Now.
	Now func() time.Time
	// ProductID is the iCalendar PRODID.
	ProductID string
	// SheetName names the XLSX worksheet.
	SheetName string
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.ProductID == "" {
		o.ProductID = "-//room-calendar//EN"
	}
	if o.SheetName == "" {
		o.SheetName = "Bookings"
	}
	return o
}

// UID returns the booking ID, or a digest of its fields for legacy records
// stored without one.
func UID(b scheduler.Booking) string {
	if b.ID != "" {
		return b.ID
	}
	parts := []string{b.SubjectID, b.ResourceID, b.StartDate, b.EndDate, b.StartTime, b.EndTime, b.ContactKey}
	for _, key := range metadataKeys([]scheduler.Booking{b}) {
		parts = append(parts, key+"="+b.Metadata[key])
	}
	sum := blake2b.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:16]) + "@room-calendar"
}

// metadataKeys returns the union of metadata keys in lexical order.
func metadataKeys(bookings []scheduler.Booking) []string {
	seen := make(map[string]struct{})
	for _, b := range bookings {
		for key := range b.Metadata {
			seen[key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// localize reinterprets a naive UTC wall time in loc.
func localize(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
}
