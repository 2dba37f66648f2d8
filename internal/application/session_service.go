package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/room-finder/internal/availability"
	"github.com/example/room-finder/internal/directory"
	"github.com/example/room-finder/internal/recurrence"
)

// Resolve looks up an entity of kind by free-text name.
func (s *ReservationService) Resolve(ctx context.Context, kind, name string) (directory.Match, error) {
	k, ok := directory.ParseKind(kind)
	if !ok {
		vErr := &ValidationError{}
		vErr.add("kind", fmt.Sprintf("unknown kind %q", kind))
		return directory.Match{}, vErr
	}
	match, err := s.catalog.Resolve(k, name)
	if err != nil {
		return directory.Match{}, mapEngineError(err)
	}
	return match, nil
}

// SearchEmployees returns employees whose name, department or position matches.
func (s *ReservationService) SearchEmployees(ctx context.Context, query string) []directory.Employee {
	return s.catalog.SearchEmployees(query)
}

// Buildings lists every building.
func (s *ReservationService) Buildings(ctx context.Context) []directory.Building {
	return s.catalog.Buildings()
}

// Floors lists the floors of a building.
func (s *ReservationService) Floors(ctx context.Context, buildingID string) ([]directory.Floor, error) {
	if _, err := s.catalog.Building(buildingID); err != nil {
		return nil, mapEngineError(err)
	}
	return s.catalog.FloorsOf(buildingID), nil
}

// Rooms lists the rooms of a floor, or every room when floorID is blank.
func (s *ReservationService) Rooms(ctx context.Context, floorID string) ([]directory.Room, error) {
	if floorID == "" {
		return s.catalog.Rooms(), nil
	}
	if _, err := s.catalog.Floor(floorID); err != nil {
		return nil, mapEngineError(err)
	}
	return s.catalog.RoomsOn(floorID), nil
}

// BusyIntervals returns an employee's commitments on date.
func (s *ReservationService) BusyIntervals(ctx context.Context, employeeID, date string) ([]availability.BusyInterval, error) {
	if _, err := s.catalog.Employee(employeeID); err != nil {
		return nil, mapEngineError(err)
	}
	intervals, err := s.availability.Intervals(employeeID, date)
	if err != nil {
		return nil, mapEngineError(err)
	}
	return intervals, nil
}

// CurrentState returns a snapshot of the caller's pending meeting.
func (s *ReservationService) CurrentState(ctx context.Context, callerID string) (SessionState, error) {
	sess, err := s.sessionFor(ctx, callerID)
	if err != nil {
		return SessionState{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshot(), nil
}

// SelectBuilding sets the caller's building by id or name and clears the floor
// when it belongs elsewhere.
func (s *ReservationService) SelectBuilding(ctx context.Context, callerID, nameOrID string) (building directory.Building, err error) {
	started := s.now()
	defer func() { s.observe("SelectBuilding", started, err) }()
	logger := s.loggerWith(ctx, "SelectBuilding", "caller_id", callerID)

	sess, err := s.sessionFor(ctx, callerID)
	if err != nil {
		return directory.Building{}, err
	}
	building, err = s.catalog.Building(nameOrID)
	if err != nil {
		if building, err = s.catalog.ResolveBuilding(nameOrID); err != nil {
			return directory.Building{}, mapEngineError(err)
		}
	}

	sess.mu.Lock()
	if sess.buildingID != building.ID {
		sess.floorID = ""
		sess.selection = nil
	}
	sess.buildingID = building.ID
	sess.mu.Unlock()

	s.savePreference(ctx, logger, sess)
	logger.With("building_id", building.ID).InfoContext(ctx, "building selected")
	return building, nil
}

// SelectFloor sets the caller's floor by id or name. Names are scoped to the
// selected building when there is one.
func (s *ReservationService) SelectFloor(ctx context.Context, callerID, nameOrID string) (floor directory.Floor, err error) {
	started := s.now()
	defer func() { s.observe("SelectFloor", started, err) }()
	logger := s.loggerWith(ctx, "SelectFloor", "caller_id", callerID)

	sess, err := s.sessionFor(ctx, callerID)
	if err != nil {
		return directory.Floor{}, err
	}

	sess.mu.Lock()
	buildingID := sess.buildingID
	sess.mu.Unlock()

	floor, err = s.catalog.Floor(nameOrID)
	if err != nil {
		if floor, err = s.catalog.ResolveFloor(buildingID, nameOrID); err != nil {
			return directory.Floor{}, mapEngineError(err)
		}
	}

	sess.mu.Lock()
	if sess.floorID != floor.ID {
		sess.selection = nil
	}
	sess.buildingID = floor.BuildingID
	sess.floorID = floor.ID
	sess.mu.Unlock()

	s.savePreference(ctx, logger, sess)
	logger.With("floor_id", floor.ID).InfoContext(ctx, "floor selected")
	return floor, nil
}

// SetDate changes the caller's working date and drops any pending selection.
func (s *ReservationService) SetDate(ctx context.Context, callerID, date string) (SessionState, error) {
	sess, err := s.sessionFor(ctx, callerID)
	if err != nil {
		return SessionState{}, err
	}
	date = strings.TrimSpace(date)
	if _, err := recurrence.ParseDate(date); err != nil {
		return SessionState{}, mapEngineError(err)
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.date != date {
		sess.selection = nil
	}
	sess.date = date
	return sess.snapshot(), nil
}

// SetTitle sets the pending meeting title.
func (s *ReservationService) SetTitle(ctx context.Context, callerID, title string) (SessionState, error) {
	sess, err := s.sessionFor(ctx, callerID)
	if err != nil {
		return SessionState{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.title = strings.TrimSpace(title)
	return sess.snapshot(), nil
}

// SetRecurrence sets the pending recurrence pattern from a free-form label.
// A repeating pattern needs an end date on or after the working date.
func (s *ReservationService) SetRecurrence(ctx context.Context, callerID, pattern, endDate string) (SessionState, error) {
	sess, err := s.sessionFor(ctx, callerID)
	if err != nil {
		return SessionState{}, err
	}
	p, err := recurrence.ParsePattern(pattern)
	if err != nil {
		return SessionState{}, mapEngineError(err)
	}
	endDate = strings.TrimSpace(endDate)
	if p.Repeats() && endDate != "" {
		if _, err := recurrence.ParseDate(endDate); err != nil {
			vErr := &ValidationError{}
			vErr.add("recurrence_end_date", err.Error())
			return SessionState{}, vErr
		}
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.recurrence = p
	sess.recurrenceEndDate = ""
	if p.Repeats() {
		sess.recurrenceEndDate = endDate
	}
	return sess.snapshot(), nil
}

// AddAttendee places an employee in role. Adding someone who already holds
// the role is a no-op; someone in another role is moved.
func (s *ReservationService) AddAttendee(ctx context.Context, callerID, employeeID string, role AttendeeRole) (SessionState, error) {
	return s.changeAttendee(ctx, "AddAttendee", callerID, employeeID, role, func(sess *session) {
		sess.attendees.Add(employeeID, role)
		sess.markDirect(employeeID)
	})
}

// ToggleAttendee removes an employee who already holds role and adds them otherwise.
func (s *ReservationService) ToggleAttendee(ctx context.Context, callerID, employeeID string, role AttendeeRole) (SessionState, error) {
	return s.changeAttendee(ctx, "ToggleAttendee", callerID, employeeID, role, func(sess *session) {
		if sess.attendees.Toggle(employeeID, role) {
			sess.markDirect(employeeID)
			return
		}
		sess.removeAttendee(employeeID)
	})
}

// SetOrganizer makes an employee the organizer, replacing any previous one.
func (s *ReservationService) SetOrganizer(ctx context.Context, callerID, employeeID string) (SessionState, error) {
	return s.changeAttendee(ctx, "SetOrganizer", callerID, employeeID, RoleOrganizer, func(sess *session) {
		sess.attendees.Add(employeeID, RoleOrganizer)
		sess.markDirect(employeeID)
	})
}

// RemoveAttendee drops an employee from the pending meeting and from every entity.
func (s *ReservationService) RemoveAttendee(ctx context.Context, callerID, employeeID string) (SessionState, error) {
	sess, err := s.sessionFor(ctx, callerID)
	if err != nil {
		return SessionState{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.removeAttendee(employeeID) {
		return SessionState{}, fmt.Errorf("%w: attendee %q", ErrNotFound, employeeID)
	}
	return sess.snapshot(), nil
}

func (s *ReservationService) changeAttendee(ctx context.Context, operation, callerID, employeeID string, role AttendeeRole, apply func(*session)) (state SessionState, err error) {
	started := s.now()
	defer func() { s.observe(operation, started, err) }()

	sess, err := s.sessionFor(ctx, callerID)
	if err != nil {
		return SessionState{}, err
	}
	if role == RoleNone {
		vErr := &ValidationError{}
		vErr.add("role", "role is required")
		return SessionState{}, vErr
	}
	if _, err := s.catalog.Employee(employeeID); err != nil {
		return SessionState{}, mapEngineError(err)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	apply(sess)
	return sess.snapshot(), nil
}

// AddEntity invites a team, group or individual. Team and group members who
// are not yet invited join with role; members already present keep their role.
func (s *ReservationService) AddEntity(ctx context.Context, callerID string, kind EntityKind, id string, role AttendeeRole) (entity SelectedEntity, err error) {
	started := s.now()
	defer func() { s.observe("AddEntity", started, err) }()
	logger := s.loggerWith(ctx, "AddEntity", "caller_id", callerID, "entity_kind", string(kind), "entity_id", id)

	sess, err := s.sessionFor(ctx, callerID)
	if err != nil {
		return SelectedEntity{}, err
	}
	if role == RoleNone {
		role = RoleRequired
	}

	entity, err = s.buildEntity(kind, id, role)
	if err != nil {
		return SelectedEntity{}, err
	}

	sess.mu.Lock()
	if kind == EntityIndividual {
		sess.attendees.Add(entity.ID, role)
		sess.markDirect(entity.ID)
	}
	entity = sess.addEntity(entity)
	sess.mu.Unlock()

	logger.DebugContext(ctx, "entity added", "member_count", entity.MemberCount)
	return entity, nil
}

func (s *ReservationService) buildEntity(kind EntityKind, id string, role AttendeeRole) (SelectedEntity, error) {
	entity := SelectedEntity{Kind: kind, ID: id, AttendeeRole: role}
	switch kind {
	case EntityTeam:
		team, err := s.catalog.Team(id)
		if err != nil {
			return SelectedEntity{}, mapEngineError(err)
		}
		members, err := s.catalog.TeamMembers(id)
		if err != nil {
			return SelectedEntity{}, mapEngineError(err)
		}
		entity.Name = team.Name
		entity.MemberIDs = members
	case EntityGroup:
		group, err := s.catalog.Group(id)
		if err != nil {
			return SelectedEntity{}, mapEngineError(err)
		}
		entity.Name = group.Name
		entity.MemberIDs = group.Members
	case EntityIndividual:
		emp, err := s.catalog.Employee(id)
		if err != nil {
			return SelectedEntity{}, mapEngineError(err)
		}
		entity.Name = emp.Name
		entity.MemberIDs = []string{emp.ID}
	default:
		vErr := &ValidationError{}
		vErr.add("kind", fmt.Sprintf("unknown entity kind %q", kind))
		return SelectedEntity{}, vErr
	}
	entity.MemberCount = len(entity.MemberIDs)
	return entity, nil
}

// RemoveEntity withdraws an entity. Members stay invited when another entity
// or an individual add still covers them.
func (s *ReservationService) RemoveEntity(ctx context.Context, callerID string, kind EntityKind, id string) (state SessionState, err error) {
	started := s.now()
	defer func() { s.observe("RemoveEntity", started, err) }()

	sess, err := s.sessionFor(ctx, callerID)
	if err != nil {
		return SessionState{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.removeEntity(kind, id) {
		return SessionState{}, fmt.Errorf("%w: %s %q is not selected", ErrNotFound, kind, id)
	}
	return sess.snapshot(), nil
}

// AddAttendeesByNames resolves each name and adds the matches with role.
// Names that match nobody are reported, not treated as an error.
func (s *ReservationService) AddAttendeesByNames(ctx context.Context, callerID string, names []string, role AttendeeRole) (NameResolution, error) {
	sess, err := s.sessionFor(ctx, callerID)
	if err != nil {
		return NameResolution{}, err
	}
	if role == RoleNone {
		role = RoleRequired
	}

	var out NameResolution
	sess.mu.Lock()
	defer sess.mu.Unlock()
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		emp, err := s.catalog.ResolveEmployee(name)
		if err != nil {
			out.Unresolved = append(out.Unresolved, name)
			continue
		}
		sess.attendees.Add(emp.ID, role)
		sess.markDirect(emp.ID)
		out.Added = append(out.Added, emp)
	}
	return out, nil
}

// workingDate returns date, falling back to the caller's session date.
func (s *ReservationService) workingDate(sess *session, date string) string {
	if date = strings.TrimSpace(date); date != "" {
		return date
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.date
}
