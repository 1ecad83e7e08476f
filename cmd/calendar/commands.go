package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/example/room-calendar/internal/application"
	"github.com/example/room-calendar/internal/export"
	"github.com/example/room-calendar/internal/scheduler"
)

// metadataFlag collects repeated -meta key=value pairs.
type metadataFlag map[string]string

func (m metadataFlag) String() string {
	pairs := make([]string, 0, len(m))
	for key, value := range m {
		pairs = append(pairs, key+"="+value)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

func (m metadataFlag) Set(value string) error {
	key, val, ok := strings.Cut(value, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return fmt.Errorf("expected key=value, got %q", value)
	}
	m[strings.TrimSpace(key)] = val
	return nil
}

// bookingFlags binds the flags describing a booking's fields.
type bookingFlags struct {
	subject, resource, contact *string
	start, end, from, to       *string
	meta                       metadataFlag
}

func addBookingFlags(fs *flag.FlagSet) *bookingFlags {
	f := &bookingFlags{meta: metadataFlag{}}
	f.subject = fs.String("subject", "", "who or what the booking is for")
	f.resource = fs.String("resource", "", "room name")
	f.contact = fs.String("contact", "", "requester contact key, usually an email")
	f.start = fs.String("start", "", "start date YYYY-MM-DD")
	f.end = fs.String("end", "", "end date YYYY-MM-DD, defaults to -start")
	f.from = fs.String("from", "", "start time HH:MM")
	f.to = fs.String("to", "", "end time HH:MM")
	fs.Var(f.meta, "meta", "extra key=value attribute, repeatable")
	return f
}

// apply overlays the flags that were set on base.
func (f *bookingFlags) apply(fs *flag.FlagSet, base scheduler.Booking) scheduler.Booking {
	b := base.Clone()
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "subject":
			b.SubjectID = *f.subject
		case "resource":
			b.ResourceID = *f.resource
		case "contact":
			b.ContactKey = *f.contact
		case "start":
			b.StartDate = *f.start
		case "end":
			b.EndDate = *f.end
		case "from":
			b.StartTime = *f.from
		case "to":
			b.EndTime = *f.to
		}
	})
	if b.EndDate == "" {
		b.EndDate = b.StartDate
	}
	if len(f.meta) > 0 {
		if b.Metadata == nil {
			b.Metadata = make(map[string]string, len(f.meta))
		}
		for key, value := range f.meta {
			b.Metadata[key] = value
		}
	}
	return b
}

func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

func (a *app) book(ctx context.Context, args []string) error {
	fs := a.newFlagSet("book")
	kind := fs.String("kind", "rooms", "booking kind")
	fields := addBookingFlags(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	svc, err := a.service(*kind)
	if err != nil {
		return err
	}
	result, err := svc.Create(ctx, fields.apply(fs, scheduler.Booking{}))
	if err != nil {
		return err
	}
	if err := result.Err(); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "booked\t%s\n", result.Booking.ID)
	return nil
}

// matchFlags select a stored booking by identifier or by field values, so
// records saved without an identifier stay reachable.
type matchFlags struct {
	id       *string
	subject  *string
	resource *string
	contact  *string
	start    *string
	from     *string
}

func addMatchFlags(fs *flag.FlagSet, prefix string) *matchFlags {
	return &matchFlags{
		id:       fs.String("id", "", "identifier of the stored booking"),
		subject:  fs.String(prefix+"subject", "", "subject of the stored booking"),
		resource: fs.String(prefix+"resource", "", "room of the stored booking"),
		contact:  fs.String(prefix+"contact", "", "contact key of the stored booking"),
		start:    fs.String(prefix+"start", "", "start date of the stored booking"),
		from:     fs.String(prefix+"from", "", "start time of the stored booking"),
	}
}

func (m *matchFlags) empty() bool {
	return *m.id == "" && *m.subject == "" && *m.resource == "" && *m.contact == "" && *m.start == "" && *m.from == ""
}

func (m *matchFlags) matches(b scheduler.Booking) bool {
	check := func(want, got string) bool { return want == "" || want == got }
	return check(*m.id, b.ID) &&
		check(*m.subject, b.SubjectID) &&
		check(strings.TrimSpace(*m.resource), strings.TrimSpace(b.ResourceID)) &&
		check(*m.contact, b.ContactKey) &&
		check(*m.start, b.StartDate) &&
		check(*m.from, b.StartTime)
}

func (a *app) move(ctx context.Context, args []string) error {
	fs := a.newFlagSet("move")
	kind := fs.String("kind", "rooms", "booking kind")
	match := addMatchFlags(fs, "old-")
	fields := addBookingFlags(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	svc, err := a.service(*kind)
	if err != nil {
		return err
	}
	old, err := findBooking(ctx, svc, match)
	if err != nil {
		return err
	}
	updated := fields.apply(fs, old)
	if *fields.start != "" && *fields.end == "" {
		updated.EndDate = updated.StartDate
	}

	result, err := svc.Update(ctx, old, updated)
	if err != nil {
		return err
	}
	if err := result.Err(); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "moved\t%s\n", result.Booking.ID)
	return nil
}

func (a *app) cancel(ctx context.Context, args []string) error {
	fs := a.newFlagSet("cancel")
	kind := fs.String("kind", "rooms", "booking kind")
	match := addMatchFlags(fs, "")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	svc, err := a.service(*kind)
	if err != nil {
		return err
	}
	target, err := findBooking(ctx, svc, match)
	if err != nil {
		return err
	}
	result, err := svc.Delete(ctx, target)
	if err != nil {
		return err
	}
	if err := result.Err(); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "cancelled\t%s\t%s\n", target.ID, target.SubjectID)
	return nil
}

// findBooking returns the stored booking selected by m. Several distinct
// matches are a usage error; identical duplicates resolve to the first.
func findBooking(ctx context.Context, svc *application.SchedulingService, m *matchFlags) (scheduler.Booking, error) {
	if m.empty() {
		return scheduler.Booking{}, fmt.Errorf("%w: -id or a field selector is required", errUsage)
	}
	all, err := svc.List(ctx)
	if err != nil {
		return scheduler.Booking{}, err
	}

	var (
		found scheduler.Booking
		hits  int
	)
	for _, b := range all {
		if !m.matches(b) {
			continue
		}
		if hits > 0 && !b.Equal(found) {
			return scheduler.Booking{}, fmt.Errorf("%w: selector matches more than one booking", errUsage)
		}
		if hits == 0 {
			found = b
		}
		hits++
	}
	if hits == 0 {
		return scheduler.Booking{}, fmt.Errorf("booking: %w", application.ErrNotFound)
	}
	return found, nil
}

// selection holds the shared listing filters.
type selection struct {
	date     *string
	from     *string
	to       *string
	month    *string
	next     *int
	resource *string
}

func addSelectionFlags(fs *flag.FlagSet) *selection {
	return &selection{
		date:     fs.String("date", "", "only bookings covering YYYY-MM-DD"),
		from:     fs.String("from", "", "range start YYYY-MM-DD"),
		to:       fs.String("to", "", "range end YYYY-MM-DD"),
		month:    fs.String("month", "", "only bookings starting in YYYY-MM"),
		next:     fs.Int("next", 0, "only bookings starting within N days of -date or today"),
		resource: fs.String("resource", "", "only bookings for this room"),
	}
}

func (sel *selection) parseDay(field, value string) (time.Time, error) {
	day, err := scheduler.ParseDate(field, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", errUsage, err)
	}
	return day, nil
}

// bookings runs the query the set flags describe, then narrows by -resource.
func (sel *selection) bookings(ctx context.Context, svc *application.SchedulingService) ([]scheduler.Booking, error) {
	var (
		bookings []scheduler.Booking
		err      error
	)
	switch {
	case *sel.next > 0:
		start := time.Now()
		if *sel.date != "" {
			if start, err = sel.parseDay("date", *sel.date); err != nil {
				return nil, err
			}
		}
		bookings, err = svc.NextDays(ctx, start, *sel.next)
	case *sel.month != "":
		first, perr := time.Parse("2006-01", *sel.month)
		if perr != nil {
			return nil, fmt.Errorf("%w: month must be YYYY-MM", errUsage)
		}
		bookings, err = svc.InMonth(ctx, first)
	case *sel.date != "":
		day, perr := sel.parseDay("date", *sel.date)
		if perr != nil {
			return nil, perr
		}
		bookings, err = svc.OnDate(ctx, day)
	case *sel.from != "" || *sel.to != "":
		first, perr := sel.parseDay("from", *sel.from)
		if perr != nil {
			return nil, perr
		}
		last, perr := sel.parseDay("to", *sel.to)
		if perr != nil {
			return nil, perr
		}
		bookings, err = svc.InRange(ctx, first, last)
	case *sel.resource != "":
		return svc.ByResource(ctx, *sel.resource)
	default:
		bookings, err = svc.List(ctx)
	}
	if err != nil || *sel.resource == "" {
		return bookings, err
	}

	resource := strings.TrimSpace(*sel.resource)
	filtered := bookings[:0]
	for _, b := range bookings {
		if strings.TrimSpace(b.ResourceID) == resource {
			filtered = append(filtered, b)
		}
	}
	return filtered, nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := a.newFlagSet("list")
	kind := fs.String("kind", "rooms", "booking kind")
	sel := addSelectionFlags(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	svc, err := a.service(*kind)
	if err != nil {
		return err
	}
	bookings, err := sel.bookings(ctx, svc)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSUBJECT\tRESOURCE\tDATES\tTIMES\tCONTACT")
	for _, b := range bookings {
		times := "all day"
		if !b.AllDay() {
			times = b.StartTime + "-" + b.EndTime
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s..%s\t%s\t%s\n", b.ID, b.SubjectID, b.ResourceID, b.StartDate, b.EndDate, times, b.ContactKey)
	}
	return tw.Flush()
}

func (a *app) occupied(ctx context.Context, args []string) error {
	fs := a.newFlagSet("occupied")
	kind := fs.String("kind", "rooms", "booking kind")
	date := fs.String("date", "", "day to check YYYY-MM-DD")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	day, err := scheduler.ParseDate("date", *date)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	svc, err := a.service(*kind)
	if err != nil {
		return err
	}
	first, ok, err := svc.FirstBookingOn(ctx, day)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.stdout, "free")
		return nil
	}
	fmt.Fprintf(a.stdout, "occupied\t%s\n", first.SubjectID)
	return nil
}

func (a *app) roomsCommand(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: rooms list|add|remove", errUsage)
	}

	switch args[0] {
	case "list":
		rooms, err := a.rooms.All(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tLOCATION\tCAPACITY\tAMENITIES\tSTATUS")
		for _, room := range rooms {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", room.Name, room.Location, room.Capacity, room.Amenities, room.Status)
		}
		return tw.Flush()

	case "add":
		fs := a.newFlagSet("rooms add")
		name := fs.String("name", "", "room name")
		location := fs.String("location", "", "where the room is")
		capacity := fs.String("capacity", "0", "number of seats")
		amenities := fs.String("amenities", "", "equipment description")
		status := fs.String("status", "", "availability note")
		if err := parseFlags(fs, args[1:]); err != nil {
			return err
		}
		seats, err := strconv.Atoi(*capacity)
		if err != nil {
			return fmt.Errorf("%w: -capacity must be a number", errUsage)
		}
		room := application.Room{Name: *name, Location: *location, Capacity: seats, Amenities: *amenities, Status: *status}
		if err := a.rooms.Add(ctx, room); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "added\t%s\n", strings.TrimSpace(*name))
		return nil

	case "remove":
		fs := a.newFlagSet("rooms remove")
		name := fs.String("name", "", "room name")
		if err := parseFlags(fs, args[1:]); err != nil {
			return err
		}
		if err := a.rooms.Remove(ctx, *name); err != nil {
			return fmt.Errorf("room %q: %w", *name, err)
		}
		fmt.Fprintf(a.stdout, "removed\t%s\n", *name)
		return nil
	}
	return fmt.Errorf("%w: unknown rooms command %q", errUsage, args[0])
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := a.newFlagSet("export")
	kind := fs.String("kind", "rooms", "booking kind")
	format := fs.String("format", "ics", "ics or xlsx")
	out := fs.String("out", "", "output file, defaults to stdout")
	sel := addSelectionFlags(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	var write func(io.Writer, []scheduler.Booking, export.Options) error
	switch strings.ToLower(*format) {
	case "ics":
		write = export.ICS
	case "xlsx":
		write = export.XLSX
	default:
		return fmt.Errorf("%w: unknown format %q", errUsage, *format)
	}

	svc, err := a.service(*kind)
	if err != nil {
		return err
	}
	bookings, err := sel.bookings(ctx, svc)
	if err != nil {
		return err
	}

	opts := export.Options{Location: a.cfg.Location()}
	render := func(w io.Writer) error { return write(w, bookings, opts) }
	if *out == "" {
		err = render(a.stdout)
	} else {
		var file *os.File
		if file, err = os.Create(*out); err != nil {
			return fmt.Errorf("create %s: %w", *out, err)
		}
		err = writeAndClose(file, render)
	}
	if err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "bookings exported", "format", *format, "count", len(bookings))
	return nil
}

// writeAndClose runs fn against wc and reports a failed close when fn succeeded.
func writeAndClose(wc io.WriteCloser, fn func(io.Writer) error) (err error) {
	defer func() {
		if cerr := wc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()
	return fn(wc)
}
