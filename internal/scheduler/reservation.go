package scheduler

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/example/room-finder/internal/recurrence"
	"github.com/example/room-finder/internal/timegrid"
)

var (
	// ErrConflict indicates a slot is already held by a different reservation.
	ErrConflict = errors.New("scheduler: requested window conflicts with an existing reservation")
	// ErrNotFound indicates the reservation or room does not exist.
	ErrNotFound = errors.New("scheduler: not found")
	// ErrInvalidRange indicates the slot range is empty or off the grid.
	ErrInvalidRange = errors.New("scheduler: invalid slot range")
	// ErrInvalidDate indicates the reservation date is malformed.
	ErrInvalidDate = errors.New("scheduler: invalid date")
)

// Reservation is a committed booking of one room for a contiguous range of slots.
type Reservation struct {
	ID                  string             `json:"id"`
	RoomID              string             `json:"room_id"`
	Date                string             `json:"date"`
	StartTime           string             `json:"start_time"`
	EndTime             string             `json:"end_time"`
	Title               string             `json:"title"`
	OrganizerID         string             `json:"organizer_id,omitempty"`
	RequiredAttendeeIDs []string           `json:"required_attendee_ids"`
	OptionalAttendeeIDs []string           `json:"optional_attendee_ids"`
	RecurrenceType      recurrence.Pattern `json:"recurrence_type"`
	RecurrenceGroupID   string             `json:"recurrence_group_id,omitempty"`
	CreatedBy           string             `json:"created_by,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// Range resolves the reservation's wall-clock bounds onto the grid.
func (r Reservation) Range() (timegrid.Range, error) {
	return timegrid.NewRange(r.StartTime, r.EndTime)
}

// Attendees lists the organizer followed by required and optional attendees.
func (r Reservation) Attendees() []string {
	out := make([]string, 0, 1+len(r.RequiredAttendeeIDs)+len(r.OptionalAttendeeIDs))
	if r.OrganizerID != "" {
		out = append(out, r.OrganizerID)
	}
	out = append(out, r.RequiredAttendeeIDs...)
	out = append(out, r.OptionalAttendeeIDs...)
	return out
}

// Involves reports whether the employee organizes or attends.
func (r Reservation) Involves(employeeID string) bool {
	return slices.Contains(r.Attendees(), employeeID)
}

func (r Reservation) clone() Reservation {
	r.RequiredAttendeeIDs = slices.Clone(r.RequiredAttendeeIDs)
	r.OptionalAttendeeIDs = slices.Clone(r.OptionalAttendeeIDs)
	return r
}

// Draft is the caller-supplied content of a reservation before it is committed.
type Draft struct {
	RoomID              string
	Date                string
	Slots               timegrid.Range
	Title               string
	OrganizerID         string
	RequiredAttendeeIDs []string
	OptionalAttendeeIDs []string
	RecurrenceType      recurrence.Pattern
	RecurrenceGroupID   string
	CreatedBy           string
}

// ConflictError reports the slots of a room that are already held.
type ConflictError struct {
	Date           string
	RoomID         string
	Slots          []timegrid.Slot
	ReservationIDs []string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e == nil {
		return ""
	}
	times := make([]string, 0, len(e.Slots))
	for _, s := range e.Slots {
		times = append(times, s.String())
	}
	return fmt.Sprintf("%s: room %s on %s at %s", ErrConflict.Error(), e.RoomID, e.Date, strings.Join(times, ","))
}

// Is lets errors.Is match ErrConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NotFoundError reports a missing room or reservation.
type NotFoundError struct {
	Kind string
	ID   string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("scheduler: %s %q not found", e.Kind, e.ID)
}

// Is lets errors.Is match ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
