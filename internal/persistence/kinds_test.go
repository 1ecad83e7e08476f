package persistence

import (
	"testing"

	"github.com/example/room-calendar/internal/scheduler"
)

func TestSchema_LegacyRoomRecord(t *testing.T) {
	t.Parallel()

	record := Record{
		"fullName":    "Nguyen Van A",
		"email":       "a@example.com",
		"phoneNumber": "0900000000",
		"roomName":    "R1",
		"startDate":   "2024-03-01",
		"endDate":     "2024-03-01",
		"startTime":   "09:00",
		"endTime":     "10:00",
		"purpose":     "standup",
		"color":       "#FF5733",
		"status":      "approved",
	}

	b := KindRooms.Schema.Decode(record)
	if b.SubjectID != "Nguyen Van A" || b.ResourceID != "R1" || b.ContactKey != "a@example.com" {
		t.Fatalf("unexpected identity fields: %+v", b)
	}
	if b.StartTime != "09:00" || b.EndTime != "10:00" {
		t.Fatalf("unexpected times: %+v", b)
	}
	if b.Metadata["purpose"] != "standup" || b.Metadata["phoneNumber"] != "0900000000" || len(b.Metadata) != 4 {
		t.Fatalf("unexpected metadata: %#v", b.Metadata)
	}

	encoded := KindRooms.Schema.Encode(b)
	if len(encoded) != len(record) {
		t.Fatalf("expected %d keys after encode, got %d: %#v", len(record), len(encoded), encoded)
	}
	for key, value := range record {
		if encoded[key] != value {
			t.Fatalf("key %q: expected %q, got %q", key, value, encoded[key])
		}
	}
}

func TestSchema_SingleDateKinds(t *testing.T) {
	t.Parallel()

	b := KindHourEvents.Schema.Decode(Record{"name": "Retro", "date": "2024-05-02", "startHour": "13:00", "endHour": "14:00"})
	if b.StartDate != "2024-05-02" || b.EndDate != "2024-05-02" {
		t.Fatalf("expected date to populate both ends, got %+v", b)
	}
	if b.Metadata != nil {
		t.Fatalf("expected no metadata, got %#v", b.Metadata)
	}

	encoded := KindHourEvents.Schema.Encode(b)
	if _, ok := encoded["startDate"]; ok {
		t.Fatalf("single-date schema must not emit startDate: %#v", encoded)
	}
	if encoded["date"] != "2024-05-02" {
		t.Fatalf("unexpected encoded date: %#v", encoded)
	}
}

func TestSchema_MetadataCannotShadowFields(t *testing.T) {
	t.Parallel()

	b := scheduler.Booking{
		SubjectID: "Offsite",
		StartDate: "2024-06-01",
		EndDate:   "2024-06-03",
		Metadata:  map[string]string{"name": "shadow", "description": "team offsite"},
	}
	encoded := KindDateRangeEvents.Schema.Encode(b)
	if encoded["name"] != "Offsite" {
		t.Fatalf("metadata overwrote subject: %#v", encoded)
	}
	if encoded["description"] != "team offsite" {
		t.Fatalf("expected description to be carried, got %#v", encoded)
	}

	schema := KindDateRangeEvents.Schema
	if !schema.Reserved("name") || !schema.Reserved("startDate") {
		t.Fatalf("expected field keys to be reserved")
	}
	if schema.Reserved("description") || schema.Reserved("roomName") || schema.Reserved("") {
		t.Fatalf("expected non-field keys to be free")
	}
}

func TestKindByName(t *testing.T) {
	t.Parallel()

	kind, err := KindByName("Hour-Events")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kind.Store != "timeline" || !kind.SingleDay() {
		t.Fatalf("unexpected kind: %+v", kind)
	}

	if _, err := KindByName("parking"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}
