package testfixtures

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/room-finder/internal/availability"
	"github.com/example/room-finder/internal/directory"
	"github.com/example/room-finder/internal/persistence"
	"github.com/example/room-finder/internal/recurrence"
	"github.com/example/room-finder/internal/scheduler"
	"github.com/example/room-finder/internal/timegrid"
)

var reservationCounter uint64

// referenceTime is a Tuesday morning so that ReferenceDate is a working day.
var referenceTime = time.Date(2024, time.March, 12, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate returns ReferenceTime as a YYYY-MM-DD date.
func ReferenceDate() string {
	return referenceTime.Format(recurrence.DateLayout)
}

// ----------------------------- Catalog fixtures -----------------------------

// Well known ids in CatalogData.
const (
	BuildingMain  = "building_main"
	BuildingAnnex = "building_annex"

	FloorMain1  = "floor_main_1"
	FloorMain2  = "floor_main_2"
	FloorAnnex1 = "floor_annex_1"

	RoomFocus  = "room_focus"
	RoomHarbor = "room_harbor"
	RoomSummit = "room_summit"
	RoomGarden = "room_garden"
	RoomStudio = "room_studio"

	TeamPlatform = "team_platform"
	TeamDesign   = "team_design"

	GroupLeads  = "group_leads"
	GroupLaunch = "group_launch"

	EmployeeAlice = "emp_alice"
	EmployeeBob   = "emp_bob"
	EmployeeCarol = "emp_carol"
	EmployeeDave  = "emp_dave"
	EmployeeErin  = "emp_erin"
	EmployeeFrank = "emp_frank"
)

// CatalogData returns a small, fully consistent directory.
func CatalogData() directory.Data {
	return directory.Data{
		Buildings: []directory.Building{
			{ID: BuildingMain, Name: "Main Hall"},
			{ID: BuildingAnnex, Name: "Annex"},
		},
		Floors: []directory.Floor{
			{ID: FloorMain1, Name: "1F", BuildingID: BuildingMain},
			{ID: FloorMain2, Name: "2F", BuildingID: BuildingMain},
			{ID: FloorAnnex1, Name: "1F", BuildingID: BuildingAnnex},
		},
		Rooms: []directory.Room{
			{ID: RoomFocus, Name: "Focus Room", Capacity: 4, FloorID: FloorMain1, BuildingID: BuildingMain, Amenities: []string{"whiteboard"}},
			{ID: RoomHarbor, Name: "Harbor", Capacity: 8, FloorID: FloorMain1, BuildingID: BuildingMain, Amenities: []string{"whiteboard", "display"}},
			{ID: RoomSummit, Name: "Summit", Capacity: 12, FloorID: FloorMain2, BuildingID: BuildingMain, Amenities: []string{"projector", "video conference"}},
			{ID: RoomGarden, Name: "Garden", Capacity: 6, FloorID: FloorAnnex1, BuildingID: BuildingAnnex},
			{ID: RoomStudio, Name: "Studio", Capacity: 10, FloorID: FloorAnnex1, BuildingID: BuildingAnnex, Amenities: []string{"microphone"}},
		},
		Teams: []directory.Team{
			{ID: TeamPlatform, Name: "Platform"},
			{ID: TeamDesign, Name: "Design"},
		},
		Employees: []directory.Employee{
			{ID: EmployeeAlice, Name: "Alice Han", Department: "Engineering", TeamID: TeamPlatform, Position: "Team Lead", Email: "alice.han@example.com"},
			{ID: EmployeeBob, Name: "Bob Yoon", Department: "Engineering", TeamID: TeamPlatform, Position: "Engineer", Email: "bob.yoon@example.com"},
			{ID: EmployeeCarol, Name: "Carol Seo", Department: "Engineering", TeamID: TeamPlatform, Position: "Engineer", Email: "carol.seo@example.com"},
			{ID: EmployeeDave, Name: "Dave Jung", Department: "Design", TeamID: TeamDesign, Position: "Manager", Email: "dave.jung@example.com"},
			{ID: EmployeeErin, Name: "Erin Lim", Department: "Design", TeamID: TeamDesign, Position: "Designer", Email: "erin.lim@example.com"},
			{ID: EmployeeFrank, Name: "Frank Oh", Department: "Design", TeamID: TeamDesign, Position: "Designer", Email: "frank.oh@example.com"},
		},
		Groups: []directory.Group{
			{ID: GroupLeads, Name: "Leads", Description: "Team leads and managers", Members: []string{EmployeeAlice, EmployeeDave}},
			{ID: GroupLaunch, Name: "Launch Crew", Description: "Spring launch", Members: []string{EmployeeBob, EmployeeDave, EmployeeErin}},
		},
	}
}

// NewCatalog builds the CatalogData directory.
func NewCatalog(tb testing.TB) *directory.Catalog {
	tb.Helper()
	catalog, err := directory.New(CatalogData())
	if err != nil {
		tb.Fatalf("failed to build catalog: %v", err)
	}
	return catalog
}

// ----------------------------- Busy calendars -----------------------------

// Busy returns a busy interval on ReferenceDate.
func Busy(employeeID, start, end string) availability.BusyInterval {
	return availability.BusyInterval{EmployeeID: employeeID, Date: ReferenceDate(), Start: start, End: end, Title: "Busy"}
}

// NewAvailability wraps a static calendar in an availability index.
func NewAvailability(tb testing.TB, intervals ...availability.BusyInterval) *availability.Index {
	tb.Helper()
	index, err := availability.NewIndex(availability.NewStatic(intervals...), 64)
	if err != nil {
		tb.Fatalf("failed to build availability index: %v", err)
	}
	return index
}

// --------------------------- Reservation fixtures ---------------------------

// ReservationFixture represents a deterministic reservation record.
type ReservationFixture struct {
	ID                string
	RoomID            string
	Date              string
	StartTime         string
	EndTime           string
	Title             string
	OrganizerID       string
	Required          []string
	Optional          []string
	Recurrence        recurrence.Pattern
	RecurrenceGroupID string
	CreatedBy         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ReservationOption configures the generated reservation fixture.
type ReservationOption func(*ReservationFixture)

// NewReservationFixture returns a one-hour reservation in RoomFocus on
// ReferenceDate with optional overrides.
func NewReservationFixture(opts ...ReservationOption) ReservationFixture {
	idx := atomic.AddUint64(&reservationCounter, 1)
	fixture := ReservationFixture{
		ID:          fmt.Sprintf("res-%03d", idx),
		RoomID:      RoomFocus,
		Date:        ReferenceDate(),
		StartTime:   "10:00",
		EndTime:     "11:00",
		Title:       fmt.Sprintf("Meeting %03d", idx),
		OrganizerID: EmployeeAlice,
		Required:    []string{EmployeeBob},
		Recurrence:  recurrence.PatternNone,
		CreatedBy:   EmployeeAlice,
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithReservationID overrides the reservation ID.
func WithReservationID(id string) ReservationOption {
	return func(f *ReservationFixture) {
		f.ID = id
	}
}

// WithReservationRoom sets the room ID.
func WithReservationRoom(roomID string) ReservationOption {
	return func(f *ReservationFixture) {
		f.RoomID = roomID
	}
}

// WithReservationDate sets the date.
func WithReservationDate(date string) ReservationOption {
	return func(f *ReservationFixture) {
		f.Date = date
	}
}

// WithReservationTimes sets the start and end wall-clock times.
func WithReservationTimes(start, end string) ReservationOption {
	return func(f *ReservationFixture) {
		f.StartTime = start
		f.EndTime = end
	}
}

// WithReservationAttendees sets the required and optional attendee IDs.
func WithReservationAttendees(required, optional []string) ReservationOption {
	return func(f *ReservationFixture) {
		f.Required = append([]string(nil), required...)
		f.Optional = append([]string(nil), optional...)
	}
}

// WithReservationOwner sets both the organizer and the creator.
func WithReservationOwner(id string) ReservationOption {
	return func(f *ReservationFixture) {
		f.OrganizerID = id
		f.CreatedBy = id
	}
}

// WithReservationGroup marks the fixture as part of a recurrence group.
func WithReservationGroup(pattern recurrence.Pattern, groupID string) ReservationOption {
	return func(f *ReservationFixture) {
		f.Recurrence = pattern
		f.RecurrenceGroupID = groupID
	}
}

// WithReservationTimestamps sets both created and updated timestamps.
func WithReservationTimestamps(created, updated time.Time) ReservationOption {
	return func(f *ReservationFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Persistence converts the fixture into its stored form.
func (f ReservationFixture) Persistence() persistence.Reservation {
	return persistence.Reservation{
		ID:                  f.ID,
		RoomID:              f.RoomID,
		Date:                f.Date,
		StartTime:           f.StartTime,
		EndTime:             f.EndTime,
		Title:               f.Title,
		OrganizerID:         f.OrganizerID,
		RequiredAttendeeIDs: append([]string(nil), f.Required...),
		OptionalAttendeeIDs: append([]string(nil), f.Optional...),
		RecurrenceType:      string(f.Recurrence),
		RecurrenceGroupID:   f.RecurrenceGroupID,
		CreatedBy:           f.CreatedBy,
		CreatedAt:           f.CreatedAt,
		UpdatedAt:           f.UpdatedAt,
	}
}

// Draft converts the fixture into a grid draft. It panics when the fixture's
// times are not on the grid.
func (f ReservationFixture) Draft() scheduler.Draft {
	slots, err := timegrid.NewRange(f.StartTime, f.EndTime)
	if err != nil {
		panic(fmt.Sprintf("testfixtures: reservation %s: %v", f.ID, err))
	}
	return scheduler.Draft{
		RoomID:              f.RoomID,
		Date:                f.Date,
		Slots:               slots,
		Title:               f.Title,
		OrganizerID:         f.OrganizerID,
		RequiredAttendeeIDs: append([]string(nil), f.Required...),
		OptionalAttendeeIDs: append([]string(nil), f.Optional...),
		RecurrenceType:      f.Recurrence,
		RecurrenceGroupID:   f.RecurrenceGroupID,
		CreatedBy:           f.CreatedBy,
	}
}
