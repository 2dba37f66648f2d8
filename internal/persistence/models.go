package persistence

import "time"

// Reservation is the stored form of a committed booking.
type Reservation struct {
	ID                  string
	RoomID              string
	Date                string
	StartTime           string
	EndTime             string
	Title               string
	OrganizerID         string
	RequiredAttendeeIDs []string
	OptionalAttendeeIDs []string
	RecurrenceType      string
	RecurrenceGroupID   string
	CreatedBy           string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Preference is the last building and floor an employee worked with.
type Preference struct {
	EmployeeID string
	BuildingID string
	FloorID    string
	UpdatedAt  time.Time
}
