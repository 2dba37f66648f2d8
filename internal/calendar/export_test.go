package calendar_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"

	"github.com/example/room-finder/internal/calendar"
	"github.com/example/room-finder/internal/recurrence"
	"github.com/example/room-finder/internal/scheduler"
	"github.com/example/room-finder/internal/testfixtures"
)

func reservation(opts ...testfixtures.ReservationOption) scheduler.Reservation {
	f := testfixtures.NewReservationFixture(opts...)
	return scheduler.Reservation{
		ID:                  f.ID,
		RoomID:              f.RoomID,
		Date:                f.Date,
		StartTime:           f.StartTime,
		EndTime:             f.EndTime,
		Title:               f.Title,
		OrganizerID:         f.OrganizerID,
		RequiredAttendeeIDs: f.Required,
		OptionalAttendeeIDs: f.Optional,
		RecurrenceType:      f.Recurrence,
		RecurrenceGroupID:   f.RecurrenceGroupID,
	}
}

func TestExporterEncodesEvents(t *testing.T) {
	t.Parallel()

	exporter := calendar.NewExporter(testfixtures.NewCatalog(t), time.UTC, testfixtures.ReferenceTime)
	reservations := []scheduler.Reservation{
		reservation(
			testfixtures.WithReservationID("res-a"),
			testfixtures.WithReservationAttendees([]string{testfixtures.EmployeeBob}, []string{testfixtures.EmployeeErin}),
		),
		reservation(
			testfixtures.WithReservationID("res-b"),
			testfixtures.WithReservationRoom(testfixtures.RoomSummit),
			testfixtures.WithReservationTimes("23:00", "24:00"),
			testfixtures.WithReservationGroup(recurrence.PatternWeekly, "grp-1"),
		),
	}

	var buf bytes.Buffer
	if err := exporter.Encode(&buf, reservations); err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"PRODID:-//room-finder//EN",
		"UID:" + calendar.UID("res-a"),
		"DTSTART:20240312T100000Z",
		"DTEND:20240312T110000Z",
		"LOCATION:Focus Room",
		"DTEND:20240313T000000Z",
		"RELATED-TO:grp-1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
	if got := strings.Count(out, "BEGIN:VEVENT"); got != 2 {
		t.Fatalf("expected two events, got %d", got)
	}

	decoded, err := ical.NewDecoder(strings.NewReader(out)).Decode()
	if err != nil {
		t.Fatalf("failed to decode exported calendar: %v", err)
	}
	events := decoded.Events()
	if len(events) != 2 {
		t.Fatalf("expected two decoded events, got %d", len(events))
	}
	attendees := events[0].Props[ical.PropAttendee]
	if len(attendees) != 2 {
		t.Fatalf("expected two attendees, got %d", len(attendees))
	}
	if attendees[0].Value != "mailto:bob.yoon@example.com" || attendees[0].Params.Get(ical.ParamRole) != "REQ-PARTICIPANT" {
		t.Fatalf("unexpected required attendee: %+v", attendees[0])
	}
	if attendees[1].Params.Get(ical.ParamRole) != "OPT-PARTICIPANT" || attendees[1].Params.Get(ical.ParamCommonName) != "Erin Lim" {
		t.Fatalf("unexpected optional attendee: %+v", attendees[1])
	}
}

func TestExporterKeepsCalendarAddressesVerbatim(t *testing.T) {
	t.Parallel()

	exporter := calendar.NewExporter(testfixtures.NewCatalog(t), time.UTC, testfixtures.ReferenceTime)
	res := reservation(testfixtures.WithReservationAttendees([]string{"ext,guest;1"}, nil))

	var buf bytes.Buffer
	if err := exporter.Encode(&buf, []scheduler.Reservation{res}); err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, `ext\,guest\;1`) {
		t.Fatalf("expected no TEXT escaping in the attendee address, got:\n%s", out)
	}

	decoded, err := ical.NewDecoder(strings.NewReader(out)).Decode()
	if err != nil {
		t.Fatalf("failed to decode exported calendar: %v", err)
	}
	attendees := decoded.Events()[0].Props[ical.PropAttendee]
	if len(attendees) != 1 || attendees[0].Value != "urn:employee:ext,guest;1" {
		t.Fatalf("expected verbatim urn address, got %+v", attendees)
	}
}

func TestUIDIsStable(t *testing.T) {
	t.Parallel()

	if calendar.UID("res-1") != calendar.UID("res-1") {
		t.Fatal("expected identical UIDs for the same reservation")
	}
	if calendar.UID("res-1") == calendar.UID("res-2") {
		t.Fatal("expected distinct UIDs for different reservations")
	}
}

func TestExporterRejectsUnparseableTimes(t *testing.T) {
	t.Parallel()

	exporter := calendar.NewExporter(testfixtures.NewCatalog(t), nil, nil)
	bad := reservation(testfixtures.WithReservationDate("not-a-date"))
	if _, err := exporter.Calendar([]scheduler.Reservation{bad}); err == nil {
		t.Fatal("expected error for malformed date")
	}
}
