package scheduler

import (
	"errors"
	"testing"
	"time"
)

func roomBooking(resource, day, start, end string) Booking {
	return Booking{
		SubjectID:  "subject",
		ResourceID: resource,
		StartDate:  day,
		EndDate:    day,
		StartTime:  start,
		EndTime:    end,
	}
}

func TestValidator_Conflicts(t *testing.T) {
	t.Parallel()

	v := DefaultValidator()

	cases := []struct {
		name string
		a    Booking
		b    Booking
		want bool
	}{
		{
			name: "touching end and start do not conflict",
			a:    roomBooking("R1", "2024-03-01", "09:00", "10:00"),
			b:    roomBooking("R1", "2024-03-01", "10:00", "11:00"),
			want: false,
		},
		{
			name: "contained window conflicts",
			a:    roomBooking("R1", "2024-03-01", "09:00", "10:00"),
			b:    roomBooking("R1", "2024-03-01", "09:30", "09:45"),
			want: true,
		},
		{
			name: "partial overlap conflicts",
			a:    roomBooking("R1", "2024-03-01", "09:00", "10:00"),
			b:    roomBooking("R1", "2024-03-01", "09:59", "12:00"),
			want: true,
		},
		{
			name: "different resources never conflict",
			a:    roomBooking("R1", "2024-03-01", "09:00", "10:00"),
			b:    roomBooking("R2", "2024-03-01", "09:00", "10:00"),
			want: false,
		},
		{
			name: "resource-less bookings do not conflict with resource bookings",
			a:    roomBooking("", "2024-03-01", "09:00", "10:00"),
			b:    roomBooking("R1", "2024-03-01", "09:00", "10:00"),
			want: false,
		},
		{
			name: "resource-less bookings conflict with each other",
			a:    Booking{SubjectID: "a", StartDate: "2024-03-01", EndDate: "2024-03-03"},
			b:    Booking{SubjectID: "b", StartDate: "2024-03-03", EndDate: "2024-03-05"},
			want: true,
		},
		{
			name: "consecutive all-day ranges do not conflict",
			a:    Booking{SubjectID: "a", StartDate: "2024-03-01", EndDate: "2024-03-02"},
			b:    Booking{SubjectID: "b", StartDate: "2024-03-03", EndDate: "2024-03-04"},
			want: false,
		},
		{
			name: "multi-day booking spans overnight",
			a:    Booking{SubjectID: "a", ResourceID: "R1", StartDate: "2024-03-01", EndDate: "2024-03-02", StartTime: "20:00", EndTime: "08:00"},
			b:    roomBooking("R1", "2024-03-02", "07:00", "07:30"),
			want: true,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := v.Conflicts(tc.a, tc.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Conflicts(a, b) = %v, want %v", got, tc.want)
			}

			reverse, err := v.Conflicts(tc.b, tc.a)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if reverse != got {
				t.Fatalf("expected symmetric result, got %v and %v", got, reverse)
			}
		})
	}
}

func TestValidator_SameContactExemption(t *testing.T) {
	t.Parallel()

	a := roomBooking("R1", "2024-03-01", "09:00", "10:00")
	a.ContactKey = "alice@example.com"
	b := roomBooking("R1", "2024-03-01", "09:30", "10:30")
	b.ContactKey = "alice@example.com"

	exempt, err := DefaultValidator().Conflicts(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exempt {
		t.Fatalf("expected same contact key to be exempt")
	}

	strict, err := Validator{}.Conflicts(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strict {
		t.Fatalf("expected conflict when exemption is disabled")
	}

	a.ContactKey = ""
	b.ContactKey = ""
	empty, err := DefaultValidator().Conflicts(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !empty {
		t.Fatalf("expected empty contact keys to not exempt the overlap")
	}
}

func TestValidator_ParseErrors(t *testing.T) {
	t.Parallel()

	good := roomBooking("R1", "2024-03-01", "09:00", "10:00")
	cases := map[string]Booking{
		"start_date": {ResourceID: "R1", StartDate: "03/01/2024", EndDate: "2024-03-01"},
		"end_date":   {ResourceID: "R1", StartDate: "2024-03-01", EndDate: "tomorrow"},
		"start_time": roomBooking("R1", "2024-03-01", "9am", "10:00"),
		"end_time":   roomBooking("R1", "2024-03-01", "09:00", "25:00"),
	}

	for field, bad := range cases {
		field, bad := field, bad
		t.Run(field, func(t *testing.T) {
			t.Parallel()

			_, err := DefaultValidator().Conflicts(good, bad)
			var pErr *ParseError
			if !errors.As(err, &pErr) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if pErr.Field != field {
				t.Fatalf("expected field %q, got %q", field, pErr.Field)
			}
		})
	}
}

func TestValidator_ParseErrorOnOtherResource(t *testing.T) {
	t.Parallel()

	corrupt := roomBooking("R2", "2024-13-45", "09:00", "10:00")
	_, err := DefaultValidator().Conflicts(roomBooking("R1", "2024-03-01", "09:00", "10:00"), corrupt)
	var pErr *ParseError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected corrupt record on another resource to fail, got %v", err)
	}
}

func TestValidator_FirstConflict(t *testing.T) {
	t.Parallel()

	existing := []Booking{
		roomBooking("R1", "2024-03-01", "08:00", "09:00"),
		roomBooking("R1", "2024-03-01", "09:00", "10:00"),
		roomBooking("R1", "2024-03-01", "09:30", "11:00"),
	}
	candidate := roomBooking("R1", "2024-03-01", "09:15", "09:45")

	conflict, err := DefaultValidator().FirstConflict(existing, candidate, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conflict == nil || conflict.Index != 1 {
		t.Fatalf("expected first conflict at index 1, got %+v", conflict)
	}

	conflict, err = DefaultValidator().FirstConflict(existing, candidate, func(i int) bool { return i == 1 })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conflict == nil || conflict.Index != 2 {
		t.Fatalf("expected skip to move conflict to index 2, got %+v", conflict)
	}

	all, err := DefaultValidator().DetectConflicts(existing, candidate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected two conflicts, got %d", len(all))
	}
}

func TestWindow_Defaults(t *testing.T) {
	t.Parallel()

	start, end, err := Window(Booking{StartDate: "2024-03-01", EndDate: "2024-03-01"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantStart := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 3, 1, 23, 59, 59, 0, time.UTC)
	if !start.Equal(wantStart) || !end.Equal(wantEnd) {
		t.Fatalf("unexpected window %s - %s", start, end)
	}
}

func TestBooking_Equal(t *testing.T) {
	t.Parallel()

	a := roomBooking("R1", "2024-03-01", "09:00", "10:00")
	b := a.Clone()
	if !a.Equal(b) {
		t.Fatalf("expected clone to be equal")
	}

	b.Metadata = map[string]string{}
	if !a.Equal(b) {
		t.Fatalf("expected nil and empty metadata to be equal")
	}

	b.Metadata["color"] = "#FF5733"
	if a.Equal(b) {
		t.Fatalf("expected metadata difference to break equality")
	}

	c := a
	c.ContactKey = "bob@example.com"
	if a.Equal(c) {
		t.Fatalf("expected contact key difference to break equality")
	}
}
