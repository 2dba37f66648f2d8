package application

import (
	"slices"
	"sync"

	"github.com/example/room-finder/internal/recurrence"
	"github.com/example/room-finder/internal/timegrid"
)

// AttendeeSet holds one optional organizer plus required and optional
// attendees. An employee id appears in at most one role.
type AttendeeSet struct {
	organizer string
	required  []string
	optional  []string
}

// Role reports the role currently held by id.
func (a *AttendeeSet) Role(id string) AttendeeRole {
	switch {
	case id == "":
		return RoleNone
	case a.organizer == id:
		return RoleOrganizer
	case slices.Contains(a.required, id):
		return RoleRequired
	case slices.Contains(a.optional, id):
		return RoleOptional
	}
	return RoleNone
}

// Add places id in role. It is a no-op when id already holds role and
// otherwise moves id out of its previous role first.
func (a *AttendeeSet) Add(id string, role AttendeeRole) bool {
	if id == "" || role == RoleNone {
		return false
	}
	if a.Role(id) == role {
		return false
	}
	a.Remove(id)
	switch role {
	case RoleOrganizer:
		a.organizer = id
	case RoleRequired:
		a.required = append(a.required, id)
	case RoleOptional:
		a.optional = append(a.optional, id)
	}
	return true
}

// Toggle removes id when it already holds role and adds it otherwise. It
// reports whether id holds role afterwards.
func (a *AttendeeSet) Toggle(id string, role AttendeeRole) bool {
	if a.Role(id) == role {
		a.Remove(id)
		return false
	}
	return a.Add(id, role)
}

// Remove drops id from whichever role it holds.
func (a *AttendeeSet) Remove(id string) bool {
	switch a.Role(id) {
	case RoleOrganizer:
		a.organizer = ""
	case RoleRequired:
		a.required = slices.DeleteFunc(a.required, func(v string) bool { return v == id })
	case RoleOptional:
		a.optional = slices.DeleteFunc(a.optional, func(v string) bool { return v == id })
	default:
		return false
	}
	return true
}

// Organizer returns the organizer id, if any.
func (a *AttendeeSet) Organizer() string { return a.organizer }

// Required returns the required attendee ids in insertion order.
func (a *AttendeeSet) Required() []string { return slices.Clone(a.required) }

// Optional returns the optional attendee ids in insertion order.
func (a *AttendeeSet) Optional() []string { return slices.Clone(a.optional) }

// Len counts everyone in the set, organizer included.
func (a *AttendeeSet) Len() int {
	n := len(a.required) + len(a.optional)
	if a.organizer != "" {
		n++
	}
	return n
}

// RankingRequired treats the organizer as a required attendee.
func (a *AttendeeSet) RankingRequired() []string {
	out := make([]string, 0, len(a.required)+1)
	if a.organizer != "" {
		out = append(out, a.organizer)
	}
	return append(out, a.required...)
}

type selection struct {
	roomID string
	slots  timegrid.Range
}

// session is the per-caller pending state. Its mutex guards every field.
type session struct {
	mu sync.Mutex

	employeeID string
	date       string
	buildingID string
	floorID    string
	selection  *selection
	attendees  AttendeeSet
	entities   []SelectedEntity
	// direct records ids added individually, so removing an entity keeps them.
	direct map[string]struct{}

	title             string
	recurrence        recurrence.Pattern
	recurrenceEndDate string
}

func newSession(employeeID, date string) *session {
	return &session{
		employeeID: employeeID,
		date:       date,
		direct:     make(map[string]struct{}),
		recurrence: recurrence.PatternNone,
	}
}

func (s *session) markDirect(id string) {
	s.direct[id] = struct{}{}
}

func (s *session) entityIndex(kind EntityKind, id string) int {
	return slices.IndexFunc(s.entities, func(e SelectedEntity) bool {
		return e.Kind == kind && e.ID == id
	})
}

// coveredElsewhere reports whether id stays invited through a direct add or
// an entity other than skip.
func (s *session) coveredElsewhere(id string, skip int) bool {
	if _, ok := s.direct[id]; ok {
		return true
	}
	for i, e := range s.entities {
		if i != skip && slices.Contains(e.MemberIDs, id) {
			return true
		}
	}
	return false
}

func (s *session) addEntity(entity SelectedEntity) SelectedEntity {
	if i := s.entityIndex(entity.Kind, entity.ID); i >= 0 {
		return cloneEntity(s.entities[i])
	}
	for _, id := range entity.MemberIDs {
		if s.attendees.Role(id) == RoleNone {
			s.attendees.Add(id, entity.AttendeeRole)
		}
	}
	s.entities = append(s.entities, cloneEntity(entity))
	return cloneEntity(entity)
}

func (s *session) removeEntity(kind EntityKind, id string) bool {
	i := s.entityIndex(kind, id)
	if i < 0 {
		return false
	}
	entity := s.entities[i]
	for _, member := range entity.MemberIDs {
		if member == s.attendees.Organizer() {
			continue
		}
		if kind == EntityIndividual {
			delete(s.direct, member)
		}
		if !s.coveredElsewhere(member, i) {
			s.attendees.Remove(member)
		}
	}
	s.entities = slices.Delete(s.entities, i, i+1)
	return true
}

// removeAttendee drops id from the attendee set and from every entity.
func (s *session) removeAttendee(id string) bool {
	delete(s.direct, id)
	removed := s.attendees.Remove(id)
	kept := s.entities[:0]
	for _, e := range s.entities {
		if e.Kind == EntityIndividual && e.ID == id {
			removed = true
			continue
		}
		if slices.Contains(e.MemberIDs, id) {
			e.MemberIDs = slices.DeleteFunc(slices.Clone(e.MemberIDs), func(v string) bool { return v == id })
			e.MemberCount = len(e.MemberIDs)
		}
		kept = append(kept, e)
	}
	s.entities = kept
	return removed
}

func (s *session) snapshot() SessionState {
	state := SessionState{
		EmployeeID:        s.employeeID,
		Date:              s.date,
		BuildingID:        s.buildingID,
		FloorID:           s.floorID,
		OrganizerID:       s.attendees.Organizer(),
		Required:          s.attendees.Required(),
		Optional:          s.attendees.Optional(),
		Entities:          make([]SelectedEntity, 0, len(s.entities)),
		Title:             s.title,
		Recurrence:        s.recurrence,
		RecurrenceEndDate: s.recurrenceEndDate,
	}
	for _, e := range s.entities {
		state.Entities = append(state.Entities, cloneEntity(e))
	}
	if s.selection != nil {
		sel := &SelectionState{
			RoomID:    s.selection.roomID,
			StartTime: s.selection.slots.StartTime(),
			EndTime:   s.selection.slots.EndTime(),
		}
		for _, slot := range s.selection.slots.Slots() {
			sel.Slots = append(sel.Slots, slot.String())
		}
		state.Selection = sel
	}
	return state
}

func cloneEntity(e SelectedEntity) SelectedEntity {
	e.MemberIDs = slices.Clone(e.MemberIDs)
	return e
}
