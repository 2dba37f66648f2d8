package application

import (
	"strings"

	"github.com/example/room-finder/internal/directory"
	"github.com/example/room-finder/internal/recurrence"
	"github.com/example/room-finder/internal/scheduler"
)

// AttendeeRole is the role an employee holds within a pending meeting.
type AttendeeRole string

const (
	RoleNone      AttendeeRole = ""
	RoleOrganizer AttendeeRole = "organizer"
	RoleRequired  AttendeeRole = "required"
	RoleOptional  AttendeeRole = "optional"
)

// ParseRole maps a caller supplied label onto a role. Blank means required.
func ParseRole(value string) (AttendeeRole, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "required", "필수":
		return RoleRequired, true
	case "optional", "선택":
		return RoleOptional, true
	case "organizer", "주관자":
		return RoleOrganizer, true
	}
	return RoleNone, false
}

// EntityKind identifies what a SelectedEntity stands for.
type EntityKind string

const (
	EntityTeam       EntityKind = "team"
	EntityGroup      EntityKind = "group"
	EntityIndividual EntityKind = "individual"
)

// ParseEntityKind maps a caller supplied label onto an entity kind.
func ParseEntityKind(value string) (EntityKind, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(EntityTeam):
		return EntityTeam, true
	case string(EntityGroup):
		return EntityGroup, true
	case string(EntityIndividual), "employee", "person":
		return EntityIndividual, true
	}
	return "", false
}

// SelectedEntity is one row of "who is invited".
type SelectedEntity struct {
	Kind         EntityKind   `json:"kind"`
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	AttendeeRole AttendeeRole `json:"attendee_role"`
	MemberIDs    []string     `json:"member_ids"`
	MemberCount  int          `json:"member_count"`
}

// SelectionState is the pending, uncommitted room and time range.
type SelectionState struct {
	RoomID    string   `json:"room_id"`
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
	Slots     []string `json:"slots"`
}

// SessionState is a snapshot of a caller's pending meeting.
type SessionState struct {
	EmployeeID        string             `json:"employee_id"`
	Date              string             `json:"date"`
	BuildingID        string             `json:"building_id,omitempty"`
	FloorID           string             `json:"floor_id,omitempty"`
	Selection         *SelectionState    `json:"selection,omitempty"`
	OrganizerID       string             `json:"organizer_id,omitempty"`
	Required          []string           `json:"required_attendee_ids"`
	Optional          []string           `json:"optional_attendee_ids"`
	Entities          []SelectedEntity   `json:"entities"`
	Title             string             `json:"title,omitempty"`
	Recurrence        recurrence.Pattern `json:"recurrence_type"`
	RecurrenceEndDate string             `json:"recurrence_end_date,omitempty"`
}

// CreateReservationParams carries a full commit request.
type CreateReservationParams struct {
	Title             string
	RoomID            string
	Date              string
	StartTime         string
	EndTime           string
	Recurrence        recurrence.Pattern
	RecurrenceEndDate string
	OrganizerID       string
	Required          []string
	Optional          []string
}

// QuickReserveParams is a commit request expressed with names instead of ids.
type QuickReserveParams struct {
	Title             string
	OrganizerName     string
	RequiredNames     []string
	OptionalNames     []string
	RoomName          string
	Date              string
	StartTime         string
	EndTime           string
	Recurrence        recurrence.Pattern
	RecurrenceEndDate string
}

// ConflictWarning describes an attendee who is already booked elsewhere.
type ConflictWarning struct {
	ReservationID string `json:"reservation_id"`
	Type          string `json:"type"`
	AttendeeID    string `json:"attendee_id,omitempty"`
	RoomID        string `json:"room_id,omitempty"`
	Date          string `json:"date"`
}

// CommitResult is the outcome of a successful commit.
type CommitResult struct {
	Reservations []scheduler.Reservation `json:"reservations"`
	Warnings     []ConflictWarning       `json:"warnings,omitempty"`
}

// RankParams is a stateless optimal-time query.
type RankParams struct {
	Required        []string
	Optional        []string
	Date            string
	DurationMinutes int
	FloorID         string
}

// AvailableRoom is a room free for a queried window.
type AvailableRoom struct {
	directory.Room
	FloorName    string `json:"floor_name"`
	BuildingName string `json:"building_name"`
}

// NameResolution reports which names matched employees and which did not.
type NameResolution struct {
	Added      []directory.Employee `json:"added"`
	Unresolved []string             `json:"unresolved,omitempty"`
}
