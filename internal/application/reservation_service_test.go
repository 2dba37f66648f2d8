package application_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/example/room-finder/internal/application"
	"github.com/example/room-finder/internal/persistence"
	"github.com/example/room-finder/internal/recurrence"
	"github.com/example/room-finder/internal/scheduler"
	"github.com/example/room-finder/internal/testfixtures"
)

func planning(overrides ...func(*application.CreateReservationParams)) application.CreateReservationParams {
	params := application.CreateReservationParams{
		Title:       "Planning",
		RoomID:      testfixtures.RoomFocus,
		Date:        testfixtures.ReferenceDate(),
		StartTime:   "10:00",
		EndTime:     "11:00",
		OrganizerID: testfixtures.EmployeeAlice,
		Required:    []string{testfixtures.EmployeeBob},
	}
	for _, fn := range overrides {
		fn(&params)
	}
	return params
}

func newService(t *testing.T, deps testfixtures.ReservationServiceDeps) *application.ReservationService {
	t.Helper()
	return testfixtures.NewServiceFactory().NewReservationService(t, deps)
}

func mustCreate(t *testing.T, svc *application.ReservationService, params application.CreateReservationParams) application.CommitResult {
	t.Helper()
	result, err := svc.CreateReservation(context.Background(), testfixtures.EmployeeAlice, params)
	if err != nil {
		t.Fatalf("CreateReservation returned error: %v", err)
	}
	return result
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var vErr *application.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	return vErr.FieldErrors
}

type recordingObserver struct {
	mu         sync.Mutex
	operations []string
	count      int
}

func (o *recordingObserver) ObserveOperation(operation, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.operations = append(o.operations, operation+":"+outcome)
}

func (o *recordingObserver) SetReservationCount(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.count = n
}

type failingStore struct{}

func (failingStore) SaveReservations(context.Context, []persistence.Reservation) error {
	return errors.New("disk full")
}

func (failingStore) LoadReservations(context.Context) ([]persistence.Reservation, error) {
	return nil, errors.New("disk full")
}

func TestCreateReservationRejectsOverlap(t *testing.T) {
	t.Parallel()

	svc := newService(t, testfixtures.ReservationServiceDeps{})
	first := mustCreate(t, svc, planning())
	if first.Reservations[0].ID != "res-1" {
		t.Fatalf("expected res-1, got %s", first.Reservations[0].ID)
	}

	_, err := svc.CreateReservation(context.Background(), testfixtures.EmployeeAlice, planning(func(p *application.CreateReservationParams) {
		p.StartTime = "10:30"
		p.EndTime = "11:30"
	}))
	if !errors.Is(err, application.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	var conflict *application.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %T", err)
	}
	if conflict.RoomID != testfixtures.RoomFocus || !slices.Equal(conflict.Dates, []string{testfixtures.ReferenceDate()}) {
		t.Fatalf("unexpected conflict details: %+v", conflict)
	}

	adjacent := mustCreate(t, svc, planning(func(p *application.CreateReservationParams) {
		p.StartTime = "11:00"
		p.EndTime = "12:00"
	}))
	if len(adjacent.Reservations) != 1 {
		t.Fatalf("expected adjacent booking to succeed, got %+v", adjacent)
	}
}

func TestCreateReservationEnforcesExclusiveRoles(t *testing.T) {
	t.Parallel()

	svc := newService(t, testfixtures.ReservationServiceDeps{})
	result := mustCreate(t, svc, planning(func(p *application.CreateReservationParams) {
		p.Required = []string{testfixtures.EmployeeBob, testfixtures.EmployeeAlice}
		p.Optional = []string{testfixtures.EmployeeBob, testfixtures.EmployeeCarol}
	}))

	res := result.Reservations[0]
	if res.OrganizerID != testfixtures.EmployeeAlice {
		t.Fatalf("expected organizer alice, got %q", res.OrganizerID)
	}
	if !slices.Equal(res.RequiredAttendeeIDs, []string{testfixtures.EmployeeBob}) {
		t.Fatalf("unexpected required attendees: %v", res.RequiredAttendeeIDs)
	}
	if !slices.Equal(res.OptionalAttendeeIDs, []string{testfixtures.EmployeeCarol}) {
		t.Fatalf("unexpected optional attendees: %v", res.OptionalAttendeeIDs)
	}
	if res.CreatedBy != testfixtures.EmployeeAlice {
		t.Fatalf("expected creator alice, got %q", res.CreatedBy)
	}
}

func TestCreateReservationValidation(t *testing.T) {
	t.Parallel()

	svc := newService(t, testfixtures.ReservationServiceDeps{})
	ctx := context.Background()

	tests := []struct {
		name   string
		params application.CreateReservationParams
		field  string
	}{
		{
			name:   "missing title",
			params: planning(func(p *application.CreateReservationParams) { p.Title = "  " }),
			field:  "title",
		},
		{
			name:   "missing room",
			params: planning(func(p *application.CreateReservationParams) { p.RoomID = "" }),
			field:  "room_id",
		},
		{
			name:   "no time selected",
			params: planning(func(p *application.CreateReservationParams) { p.StartTime = "" }),
			field:  "time",
		},
		{
			name:   "time before the grid opens",
			params: planning(func(p *application.CreateReservationParams) { p.StartTime = "05:00" }),
			field:  "time",
		},
		{
			name:   "bad date",
			params: planning(func(p *application.CreateReservationParams) { p.Date = "12/03/2024" }),
			field:  "date",
		},
		{
			name: "repeating without end date",
			params: planning(func(p *application.CreateReservationParams) {
				p.Recurrence = recurrence.PatternWeekly
			}),
			field: "recurrence_end_date",
		},
		{
			name: "end date before start",
			params: planning(func(p *application.CreateReservationParams) {
				p.Recurrence = recurrence.PatternDaily
				p.RecurrenceEndDate = "2024-03-01"
			}),
			field: "recurrence_end_date",
		},
		{
			name:   "unknown recurrence",
			params: planning(func(p *application.CreateReservationParams) { p.Recurrence = "hourly" }),
			field:  "recurrence_type",
		},
		{
			name: "unknown attendee",
			params: planning(func(p *application.CreateReservationParams) {
				p.Optional = []string{"emp_ghost"}
			}),
			field: "attendees",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateReservation(ctx, testfixtures.EmployeeAlice, tc.params)
			fields := fieldErrors(t, err)
			if _, ok := fields[tc.field]; !ok {
				t.Fatalf("expected error on %q, got %v", tc.field, fields)
			}
		})
	}

	if got := svc.ListReservations(ctx, scheduler.Filter{}); len(got) != 0 {
		t.Fatalf("expected no reservations after failed validation, got %d", len(got))
	}
}

func TestCreateReservationUnknownRoomAndCaller(t *testing.T) {
	t.Parallel()

	svc := newService(t, testfixtures.ReservationServiceDeps{})
	ctx := context.Background()

	_, err := svc.CreateReservation(ctx, testfixtures.EmployeeAlice, planning(func(p *application.CreateReservationParams) {
		p.RoomID = "room_missing"
	}))
	if !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown room, got %v", err)
	}

	if _, err := svc.CreateReservation(ctx, "emp_ghost", planning()); !errors.Is(err, application.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.CreateReservation(ctx, " ", planning()); !errors.Is(err, application.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for blank caller, got %v", err)
	}
}

func TestCreateReservationReportsAttendeeWarnings(t *testing.T) {
	t.Parallel()

	svc := newService(t, testfixtures.ReservationServiceDeps{})
	mustCreate(t, svc, planning())

	result := mustCreate(t, svc, planning(func(p *application.CreateReservationParams) {
		p.RoomID = testfixtures.RoomHarbor
		p.StartTime = "10:30"
		p.EndTime = "11:30"
		p.OrganizerID = testfixtures.EmployeeCarol
	}))

	if len(result.Warnings) != 1 {
		t.Fatalf("expected one warning, got %+v", result.Warnings)
	}
	warning := result.Warnings[0]
	if warning.ReservationID != "res-1" || warning.Type != "attendee" || warning.AttendeeID != testfixtures.EmployeeBob {
		t.Fatalf("unexpected warning: %+v", warning)
	}
}

func TestRecurringReservationLifecycle(t *testing.T) {
	t.Parallel()

	svc := newService(t, testfixtures.ReservationServiceDeps{})
	ctx := context.Background()

	result := mustCreate(t, svc, planning(func(p *application.CreateReservationParams) {
		p.Recurrence = recurrence.PatternWeekly
		p.RecurrenceEndDate = "2024-03-26"
	}))

	var dates []string
	for _, r := range result.Reservations {
		if r.RecurrenceGroupID != "grp-1" {
			t.Fatalf("expected group grp-1, got %q", r.RecurrenceGroupID)
		}
		if r.RecurrenceType != recurrence.PatternWeekly {
			t.Fatalf("expected weekly pattern, got %q", r.RecurrenceType)
		}
		dates = append(dates, r.Date)
	}
	if want := []string{"2024-03-12", "2024-03-19", "2024-03-26"}; !slices.Equal(dates, want) {
		t.Fatalf("expected dates %v, got %v", want, dates)
	}

	removed, err := svc.DeleteReservation(ctx, testfixtures.EmployeeBob, result.Reservations[1].ID, false)
	if err != nil {
		t.Fatalf("DeleteReservation returned error: %v", err)
	}
	if len(removed) != 1 || removed[0].Date != "2024-03-19" {
		t.Fatalf("expected single occurrence removed, got %+v", removed)
	}

	removed, err = svc.DeleteReservation(ctx, testfixtures.EmployeeAlice, result.Reservations[0].ID, true)
	if err != nil {
		t.Fatalf("cascading DeleteReservation returned error: %v", err)
	}
	if len(removed) != 2 {
		t.Fatalf("expected the two remaining occurrences removed, got %+v", removed)
	}
	if left := svc.ListReservations(ctx, scheduler.Filter{RecurrenceGroupID: "grp-1"}); len(left) != 0 {
		t.Fatalf("expected empty group, got %+v", left)
	}

	if _, err := svc.DeleteReservation(ctx, testfixtures.EmployeeAlice, "res-404", false); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecurringReservationIsAllOrNothing(t *testing.T) {
	t.Parallel()

	svc := newService(t, testfixtures.ReservationServiceDeps{})
	ctx := context.Background()
	mustCreate(t, svc, planning(func(p *application.CreateReservationParams) {
		p.Date = "2024-03-19"
	}))

	_, err := svc.CreateReservation(ctx, testfixtures.EmployeeAlice, planning(func(p *application.CreateReservationParams) {
		p.Recurrence = recurrence.PatternWeekly
		p.RecurrenceEndDate = "2024-03-26"
	}))
	var conflict *application.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if !slices.Equal(conflict.Dates, []string{"2024-03-19"}) {
		t.Fatalf("expected only 2024-03-19 to clash, got %v", conflict.Dates)
	}
	if got := svc.ListReservations(ctx, scheduler.Filter{}); len(got) != 1 {
		t.Fatalf("expected only the pre-existing reservation, got %d", len(got))
	}
}

func TestMoveReservation(t *testing.T) {
	t.Parallel()

	svc := newService(t, testfixtures.ReservationServiceDeps{})
	ctx := context.Background()
	first := mustCreate(t, svc, planning()).Reservations[0]
	mustCreate(t, svc, planning(func(p *application.CreateReservationParams) {
		p.StartTime = "11:00"
		p.EndTime = "12:00"
	}))

	if _, err := svc.MoveReservation(ctx, testfixtures.EmployeeAlice, first.ID, testfixtures.RoomFocus, "10:30", "11:30"); !errors.Is(err, application.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	unchanged, err := svc.GetReservation(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetReservation returned error: %v", err)
	}
	if unchanged.StartTime != "10:00" || unchanged.RoomID != testfixtures.RoomFocus {
		t.Fatalf("expected reservation untouched after failed move, got %+v", unchanged)
	}

	resized, err := svc.ResizeReservation(ctx, testfixtures.EmployeeAlice, first.ID, "09:30", "11:00")
	if err != nil {
		t.Fatalf("ResizeReservation returned error: %v", err)
	}
	if resized.StartTime != "09:30" || resized.RoomID != testfixtures.RoomFocus {
		t.Fatalf("unexpected resized reservation: %+v", resized)
	}

	moved, err := svc.MoveReservation(ctx, testfixtures.EmployeeAlice, first.ID, testfixtures.RoomHarbor, "11:00", "12:00")
	if err != nil {
		t.Fatalf("MoveReservation returned error: %v", err)
	}
	if moved.RoomID != testfixtures.RoomHarbor || moved.StartTime != "11:00" {
		t.Fatalf("unexpected moved reservation: %+v", moved)
	}

	rooms, err := svc.GetAvailableRooms(ctx, testfixtures.EmployeeAlice, "", "09:30", "11:00", testfixtures.FloorMain1)
	if err != nil {
		t.Fatalf("GetAvailableRooms returned error: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("expected both floor rooms free after the move, got %+v", rooms)
	}

	if _, err := svc.MoveReservation(ctx, testfixtures.EmployeeAlice, first.ID, "room_missing", "11:00", "12:00"); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSelectRangeAndCommitSelection(t *testing.T) {
	t.Parallel()

	svc := newService(t, testfixtures.ReservationServiceDeps{})
	ctx := context.Background()
	mustCreate(t, svc, planning())

	_, err := svc.SelectRange(ctx, testfixtures.EmployeeCarol, testfixtures.RoomFocus, "10:30", "11:30")
	var conflict *application.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if want := []string{"10:30", "10:40", "10:50"}; !slices.Equal(conflict.Slots, want) {
		t.Fatalf("expected slots %v, got %v", want, conflict.Slots)
	}
	if !slices.Equal(conflict.ReservationIDs, []string{"res-1"}) {
		t.Fatalf("expected res-1, got %v", conflict.ReservationIDs)
	}

	state, err := svc.SelectRange(ctx, testfixtures.EmployeeCarol, testfixtures.RoomFocus, "11:00", "12:00")
	if err != nil {
		t.Fatalf("SelectRange returned error: %v", err)
	}
	if state.Selection == nil || len(state.Selection.Slots) != 6 {
		t.Fatalf("expected a six slot selection, got %+v", state.Selection)
	}

	if _, err := svc.CommitSelection(ctx, testfixtures.EmployeeCarol); err == nil {
		t.Fatal("expected commit without title to fail")
	}

	if _, err := svc.SetTitle(ctx, testfixtures.EmployeeCarol, "Retro"); err != nil {
		t.Fatalf("SetTitle returned error: %v", err)
	}
	if _, err := svc.SetOrganizer(ctx, testfixtures.EmployeeCarol, testfixtures.EmployeeCarol); err != nil {
		t.Fatalf("SetOrganizer returned error: %v", err)
	}
	if _, err := svc.AddAttendee(ctx, testfixtures.EmployeeCarol, testfixtures.EmployeeDave, application.RoleRequired); err != nil {
		t.Fatalf("AddAttendee returned error: %v", err)
	}

	result, err := svc.CommitSelection(ctx, testfixtures.EmployeeCarol)
	if err != nil {
		t.Fatalf("CommitSelection returned error: %v", err)
	}
	res := result.Reservations[0]
	if res.Title != "Retro" || res.StartTime != "11:00" || res.EndTime != "12:00" || res.OrganizerID != testfixtures.EmployeeCarol {
		t.Fatalf("unexpected committed reservation: %+v", res)
	}

	after, err := svc.CurrentState(ctx, testfixtures.EmployeeCarol)
	if err != nil {
		t.Fatalf("CurrentState returned error: %v", err)
	}
	if after.Selection != nil || after.Title != "" || after.OrganizerID != "" || len(after.Required) != 0 {
		t.Fatalf("expected pending meeting reset, got %+v", after)
	}
	if after.Date != testfixtures.ReferenceDate() {
		t.Fatalf("expected date kept, got %q", after.Date)
	}
}

func TestCommitSelectionDoesNotDropConcurrentEdits(t *testing.T) {
	t.Parallel()

	svc := newService(t, testfixtures.ReservationServiceDeps{})
	ctx := context.Background()
	caller := testfixtures.EmployeeCarol

	for hour := 8; hour < 20; hour++ {
		if _, err := svc.SelectRange(ctx, caller, testfixtures.RoomFocus, fmt.Sprintf("%02d:00", hour), fmt.Sprintf("%02d:50", hour)); err != nil {
			t.Fatalf("SelectRange returned error: %v", err)
		}
		if _, err := svc.SetTitle(ctx, caller, "Retro"); err != nil {
			t.Fatalf("SetTitle returned error: %v", err)
		}
		if _, err := svc.SetOrganizer(ctx, caller, caller); err != nil {
			t.Fatalf("SetOrganizer returned error: %v", err)
		}

		var wg sync.WaitGroup
		var result application.CommitResult
		var commitErr, titleErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			result, commitErr = svc.CommitSelection(ctx, caller)
		}()
		go func() {
			defer wg.Done()
			_, titleErr = svc.SetTitle(ctx, caller, "Renamed")
		}()
		wg.Wait()
		if commitErr != nil || titleErr != nil {
			t.Fatalf("unexpected errors: commit=%v title=%v", commitErr, titleErr)
		}

		state, err := svc.CurrentState(ctx, caller)
		if err != nil {
			t.Fatalf("CurrentState returned error: %v", err)
		}
		committed := result.Reservations[0].Title
		editFirst := committed == "Renamed" && state.Title == ""
		commitFirst := committed == "Retro" && state.Title == "Renamed"
		if !editFirst && !commitFirst {
			t.Fatalf("hour %d: title edit lost, committed %q with pending %q", hour, committed, state.Title)
		}
		if _, err := svc.SetTitle(ctx, caller, ""); err != nil {
			t.Fatalf("SetTitle returned error: %v", err)
		}
	}
}

func TestQuickReserve(t *testing.T) {
	t.Parallel()

	svc := newService(t, testfixtures.ReservationServiceDeps{})
	ctx := context.Background()

	_, err := svc.QuickReserve(ctx, testfixtures.EmployeeAlice, application.QuickReserveParams{
		Title:         "Sync",
		RoomName:      "Summit",
		RequiredNames: []string{"Bob", "Zed"},
		StartTime:     "14:00",
		EndTime:       "14:30",
	})
	fields := fieldErrors(t, err)
	if fields["required_names"] != "unknown employees: Zed" {
		t.Fatalf("unexpected field errors: %v", fields)
	}

	result, err := svc.QuickReserve(ctx, testfixtures.EmployeeAlice, application.QuickReserveParams{
		Title:         "Sync",
		OrganizerName: "alice",
		RequiredNames: []string{"Bob"},
		OptionalNames: []string{"erin lim"},
		RoomName:      "summit",
		StartTime:     "14:00",
		EndTime:       "14:30",
	})
	if err != nil {
		t.Fatalf("QuickReserve returned error: %v", err)
	}
	res := result.Reservations[0]
	if res.RoomID != testfixtures.RoomSummit || res.Date != testfixtures.ReferenceDate() {
		t.Fatalf("unexpected reservation location: %+v", res)
	}
	if res.OrganizerID != testfixtures.EmployeeAlice ||
		!slices.Equal(res.RequiredAttendeeIDs, []string{testfixtures.EmployeeBob}) ||
		!slices.Equal(res.OptionalAttendeeIDs, []string{testfixtures.EmployeeErin}) {
		t.Fatalf("unexpected attendees: %+v", res)
	}

	if _, err := svc.QuickReserve(ctx, testfixtures.EmployeeAlice, application.QuickReserveParams{
		Title: "Sync", RoomName: "Ballroom", StartTime: "14:00", EndTime: "14:30",
	}); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown room, got %v", err)
	}
}

func TestCancelReservationByTime(t *testing.T) {
	t.Parallel()

	svc := newService(t, testfixtures.ReservationServiceDeps{})
	ctx := context.Background()
	mustCreate(t, svc, planning())

	removed, err := svc.CancelReservationByTime(ctx, testfixtures.EmployeeBob, "Focus Room", "", "10:30")
	if err != nil {
		t.Fatalf("CancelReservationByTime returned error: %v", err)
	}
	if len(removed) != 1 || removed[0].ID != "res-1" {
		t.Fatalf("expected res-1 removed, got %+v", removed)
	}

	if _, err := svc.CancelReservationByTime(ctx, testfixtures.EmployeeBob, testfixtures.RoomFocus, testfixtures.ReferenceDate(), "10:30"); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty slot, got %v", err)
	}
}

func TestFindOptimalTimes(t *testing.T) {
	t.Parallel()

	avail := testfixtures.NewAvailability(t, testfixtures.Busy(testfixtures.EmployeeBob, "09:00", "18:00"))
	svc := newService(t, testfixtures.ReservationServiceDeps{Availability: avail})
	ctx := context.Background()

	windows, err := svc.FindOptimalTimes(ctx, testfixtures.EmployeeAlice, 60)
	if err != nil {
		t.Fatalf("FindOptimalTimes returned error: %v", err)
	}
	if len(windows) != 0 {
		t.Fatalf("expected no windows without attendees, got %d", len(windows))
	}

	if _, err := svc.SetOrganizer(ctx, testfixtures.EmployeeAlice, testfixtures.EmployeeAlice); err != nil {
		t.Fatalf("SetOrganizer returned error: %v", err)
	}
	if _, err := svc.AddAttendee(ctx, testfixtures.EmployeeAlice, testfixtures.EmployeeBob, application.RoleRequired); err != nil {
		t.Fatalf("AddAttendee returned error: %v", err)
	}

	windows, err = svc.FindOptimalTimes(ctx, testfixtures.EmployeeAlice, 60)
	if err != nil {
		t.Fatalf("FindOptimalTimes returned error: %v", err)
	}
	if len(windows) != 10 {
		t.Fatalf("expected ten windows, got %d", len(windows))
	}
	if windows[0].StartTime != "06:00" || windows[0].Score != 2000 || !windows[0].AllRequiredAvailable {
		t.Fatalf("unexpected best window: %+v", windows[0])
	}
	last := windows[9]
	if last.StartTime != "09:00" || last.Score != 1500 || !slices.Equal(last.UnavailableRequired, []string{testfixtures.EmployeeBob}) {
		t.Fatalf("unexpected tenth window: %+v", last)
	}

	if _, err := svc.FindOptimalTimes(ctx, testfixtures.EmployeeAlice, 0); err == nil {
		t.Fatal("expected error for zero duration")
	} else if _, ok := fieldErrors(t, err)["duration"]; !ok {
		t.Fatalf("expected duration field error, got %v", err)
	}
}

func TestRankWindowsValidatesAttendees(t *testing.T) {
	t.Parallel()

	svc := newService(t, testfixtures.ReservationServiceDeps{})
	_, err := svc.RankWindows(context.Background(), application.RankParams{
		Required:        []string{"emp_ghost"},
		Date:            testfixtures.ReferenceDate(),
		DurationMinutes: 30,
	})
	if _, ok := fieldErrors(t, err)["attendees"]; !ok {
		t.Fatalf("expected attendees field error, got %v", err)
	}

	windows, err := svc.RankWindows(context.Background(), application.RankParams{
		Required:        []string{testfixtures.EmployeeAlice},
		Date:            testfixtures.ReferenceDate(),
		DurationMinutes: 30,
		FloorID:         testfixtures.FloorMain2,
	})
	if err != nil {
		t.Fatalf("RankWindows returned error: %v", err)
	}
	if len(windows) == 0 || !slices.Equal(windows[0].FreeRoomIDs, []string{testfixtures.RoomSummit}) {
		t.Fatalf("expected floor scoped rooms, got %+v", windows)
	}
}

func TestGetAvailableRooms(t *testing.T) {
	t.Parallel()

	svc := newService(t, testfixtures.ReservationServiceDeps{})
	ctx := context.Background()
	mustCreate(t, svc, planning())

	rooms, err := svc.GetAvailableRooms(ctx, testfixtures.EmployeeAlice, "", "10:30", "11:00", testfixtures.FloorMain1)
	if err != nil {
		t.Fatalf("GetAvailableRooms returned error: %v", err)
	}
	if len(rooms) != 1 || rooms[0].ID != testfixtures.RoomHarbor {
		t.Fatalf("expected only Harbor, got %+v", rooms)
	}
	if rooms[0].FloorName != "1F" || rooms[0].BuildingName != "Main Hall" {
		t.Fatalf("unexpected location names: %+v", rooms[0])
	}

	all, err := svc.GetAvailableRooms(ctx, testfixtures.EmployeeAlice, testfixtures.ReferenceDate(), "10:30", "11:00", "")
	if err != nil {
		t.Fatalf("GetAvailableRooms returned error: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected four free rooms, got %d", len(all))
	}

	if _, err := svc.GetAvailableRooms(ctx, testfixtures.EmployeeAlice, "", "11:00", "10:00", ""); err == nil {
		t.Fatal("expected error for inverted range")
	}
}

func TestListMyReservations(t *testing.T) {
	t.Parallel()

	svc := newService(t, testfixtures.ReservationServiceDeps{})
	ctx := context.Background()
	mustCreate(t, svc, planning())
	if _, err := svc.CreateReservation(ctx, testfixtures.EmployeeDave, planning(func(p *application.CreateReservationParams) {
		p.RoomID = testfixtures.RoomGarden
		p.OrganizerID = testfixtures.EmployeeDave
	})); err != nil {
		t.Fatalf("CreateReservation returned error: %v", err)
	}

	mine, err := svc.ListMyReservations(ctx, testfixtures.EmployeeDave, "")
	if err != nil {
		t.Fatalf("ListMyReservations returned error: %v", err)
	}
	if len(mine) != 1 || mine[0].RoomID != testfixtures.RoomGarden {
		t.Fatalf("expected Dave's reservation only, got %+v", mine)
	}
}

func TestRestoreFromStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewMemoryHarness(t)
	first := newService(t, testfixtures.ReservationServiceDeps{Reservations: harness.Reservations})
	mustCreate(t, first, planning())

	factory := testfixtures.NewServiceFactory(testfixtures.WithIDGenerator(testfixtures.NewIDGenerator("next")))
	observer := &recordingObserver{}
	second := factory.NewReservationService(t, testfixtures.ReservationServiceDeps{Reservations: harness.Reservations, Observer: observer})
	if err := second.Restore(ctx); err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}
	if observer.count != 1 {
		t.Fatalf("expected reservation gauge 1 after restore, got %d", observer.count)
	}

	restored, err := second.GetReservation(ctx, "res-1")
	if err != nil {
		t.Fatalf("GetReservation returned error: %v", err)
	}
	if restored.OrganizerID != testfixtures.EmployeeAlice || !slices.Equal(restored.RequiredAttendeeIDs, []string{testfixtures.EmployeeBob}) {
		t.Fatalf("unexpected restored reservation: %+v", restored)
	}
	if _, err := second.CreateReservation(ctx, testfixtures.EmployeeAlice, planning()); !errors.Is(err, application.ErrConflict) {
		t.Fatalf("expected restored reservation to block the slot, got %v", err)
	}
}

func TestPersistFailureDoesNotFailMutation(t *testing.T) {
	t.Parallel()

	observer := &recordingObserver{}
	svc := newService(t, testfixtures.ReservationServiceDeps{Reservations: failingStore{}, Observer: observer})
	result := mustCreate(t, svc, planning())
	if len(result.Reservations) != 1 {
		t.Fatalf("expected reservation to be committed, got %+v", result)
	}
	if err := svc.Restore(context.Background()); err == nil {
		t.Fatal("expected Restore to surface load failure")
	}

	observer.mu.Lock()
	defer observer.mu.Unlock()
	if !slices.Contains(observer.operations, "CreateReservation:ok") {
		t.Fatalf("expected CreateReservation to be observed, got %v", observer.operations)
	}
	if observer.count != 1 {
		t.Fatalf("expected reservation gauge 1, got %d", observer.count)
	}
}

// slowStore keeps the last saved snapshot. Smaller snapshots take longer to
// save, so an unordered writer finishes with a stale list.
type slowStore struct {
	mu   sync.Mutex
	last []persistence.Reservation
}

func (s *slowStore) SaveReservations(_ context.Context, reservations []persistence.Reservation) error {
	time.Sleep(time.Duration(12-len(reservations)) * 200 * time.Microsecond)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = slices.Clone(reservations)
	return nil
}

func (s *slowStore) LoadReservations(context.Context) ([]persistence.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.last), nil
}

func TestConcurrentCommitsPersistLatestSnapshot(t *testing.T) {
	t.Parallel()

	const hours = 12
	store := &slowStore{}
	svc := newService(t, testfixtures.ReservationServiceDeps{Reservations: store})

	var wg sync.WaitGroup
	errs := make(chan error, hours)
	for i := range hours {
		wg.Add(1)
		go func(hour int) {
			defer wg.Done()
			params := planning(func(p *application.CreateReservationParams) {
				p.StartTime = fmt.Sprintf("%02d:00", hour)
				p.EndTime = fmt.Sprintf("%02d:50", hour)
			})
			if _, err := svc.CreateReservation(context.Background(), testfixtures.EmployeeAlice, params); err != nil {
				errs <- err
			}
		}(8 + i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("CreateReservation returned error: %v", err)
	}

	saved, err := store.LoadReservations(context.Background())
	if err != nil {
		t.Fatalf("LoadReservations returned error: %v", err)
	}
	if len(saved) != hours {
		t.Fatalf("expected last snapshot to hold %d reservations, got %d", hours, len(saved))
	}
}

func TestObserverRecordsErrorKind(t *testing.T) {
	t.Parallel()

	observer := &recordingObserver{}
	svc := newService(t, testfixtures.ReservationServiceDeps{Observer: observer})
	mustCreate(t, svc, planning())
	if _, err := svc.CreateReservation(context.Background(), testfixtures.EmployeeAlice, planning()); err == nil {
		t.Fatal("expected conflict")
	}

	observer.mu.Lock()
	defer observer.mu.Unlock()
	if !slices.Contains(observer.operations, "CreateReservation:conflict") {
		t.Fatalf("expected conflict outcome, got %v", observer.operations)
	}
}
