// Package calendar renders committed reservations as an iCalendar feed.
package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/example/room-finder/internal/directory"
	"github.com/example/room-finder/internal/recurrence"
	"github.com/example/room-finder/internal/scheduler"
	"github.com/example/room-finder/internal/timegrid"
)

const productID = "-//room-finder//EN"

// uidNamespace keeps event UIDs stable across exports of the same reservation.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:room-finder:reservation"))

// Directory resolves the names written into events.
type Directory interface {
	Room(id string) (directory.Room, error)
	Employee(id string) (directory.Employee, error)
}

// Exporter converts reservations into VEVENT components.
type Exporter struct {
	directory Directory
	location  *time.Location
	now       func() time.Time
}

// NewExporter builds an exporter. Wall-clock times are interpreted in loc,
// which defaults to UTC.
func NewExporter(dir Directory, loc *time.Location, now func() time.Time) *Exporter {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Exporter{directory: dir, location: loc, now: now}
}

// UID returns the event UID of a reservation.
func UID(reservationID string) string {
	return uuid.NewSHA1(uidNamespace, []byte(reservationID)).String()
}

// Calendar builds a VCALENDAR holding one event per reservation.
func (e *Exporter) Calendar(reservations []scheduler.Reservation) (*ical.Calendar, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	stamp := e.now().UTC()
	for _, r := range reservations {
		event, err := e.event(r, stamp)
		if err != nil {
			return nil, err
		}
		cal.Children = append(cal.Children, event)
	}
	return cal, nil
}

// Encode writes reservations to w as an iCalendar stream.
func (e *Exporter) Encode(w io.Writer, reservations []scheduler.Reservation) error {
	cal, err := e.Calendar(reservations)
	if err != nil {
		return err
	}
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("calendar: encode: %w", err)
	}
	return nil
}

func (e *Exporter) event(r scheduler.Reservation, stamp time.Time) (*ical.Component, error) {
	start, err := e.instant(r.Date, r.StartTime)
	if err != nil {
		return nil, fmt.Errorf("calendar: reservation %s: %w", r.ID, err)
	}
	end, err := e.instant(r.Date, r.EndTime)
	if err != nil {
		return nil, fmt.Errorf("calendar: reservation %s: %w", r.ID, err)
	}

	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, UID(r.ID))
	ve.Props.SetText(ical.PropSummary, r.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	ve.Props.SetDateTime(ical.PropDateTimeStart, start)
	ve.Props.SetDateTime(ical.PropDateTimeEnd, end)

	if room, err := e.directory.Room(r.RoomID); err == nil {
		ve.Props.SetText(ical.PropLocation, room.Name)
	} else {
		ve.Props.SetText(ical.PropLocation, r.RoomID)
	}
	if r.RecurrenceGroupID != "" {
		ve.Props.SetText(ical.PropRelatedTo, r.RecurrenceGroupID)
		ve.Props.SetText(ical.PropCategories, strings.ToUpper(string(r.RecurrenceType)))
	}

	if r.OrganizerID != "" {
		ve.Props.Add(e.person(ical.PropOrganizer, r.OrganizerID, ""))
	}
	for _, id := range r.RequiredAttendeeIDs {
		ve.Props.Add(e.person(ical.PropAttendee, id, "REQ-PARTICIPANT"))
	}
	for _, id := range r.OptionalAttendeeIDs {
		ve.Props.Add(e.person(ical.PropAttendee, id, "OPT-PARTICIPANT"))
	}
	return ve, nil
}

// person renders an organizer or attendee. Employees without an email fall
// back to a urn carrying their id.
func (e *Exporter) person(name, employeeID, role string) *ical.Prop {
	p := ical.NewProp(name)
	value := "urn:employee:" + employeeID
	if emp, err := e.directory.Employee(employeeID); err == nil {
		p.Params.Set(ical.ParamCommonName, emp.Name)
		if emp.Email != "" {
			value = "mailto:" + emp.Email
		}
	}
	if role != "" {
		p.Params.Set(ical.ParamRole, role)
	}
	p.Value = value
	return p
}

// instant places a grid wall-clock time on a date. "24:00" becomes midnight
// of the following day.
func (e *Exporter) instant(date, clock string) (time.Time, error) {
	day, err := recurrence.ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	minutes, err := timegrid.ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, e.location)
	return midnight.Add(time.Duration(minutes) * time.Minute), nil
}
