// Package scheduler owns the reservation grid: the authoritative mapping of
// date, room and slot to the reservation occupying it.
package scheduler

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/room-finder/internal/recurrence"
	"github.com/example/room-finder/internal/timegrid"
)

// RoomCatalog reports which room ids exist.
type RoomCatalog interface {
	HasRoom(id string) bool
}

// SlotState is the committed state of a single room slot.
type SlotState int

const (
	// SlotAvailable means no reservation holds the slot.
	SlotAvailable SlotState = iota
	// SlotReserved means a reservation holds the slot.
	SlotReserved
)

func (s SlotState) String() string {
	switch s {
	case SlotAvailable:
		return "available"
	case SlotReserved:
		return "reserved"
	}
	return "unknown"
}

// SlotStatus pairs a slot state with its reservation when reserved.
type SlotStatus struct {
	State       SlotState
	Reservation *Reservation
}

type roomDay [timegrid.SlotsPerDay]*Reservation

// Grid stores reservations. Every check-then-write runs under the write lock,
// so callers never observe a partially applied create, move or delete.
type Grid struct {
	mu    sync.RWMutex
	rooms RoomCatalog
	newID func() string
	now   func() time.Time

	byID  map[string]*Reservation
	cells map[string]map[string]*roomDay
}

// NewGrid builds an empty grid over the room catalog.
func NewGrid(rooms RoomCatalog, idGenerator func() string, now func() time.Time) *Grid {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &Grid{
		rooms: rooms,
		newID: idGenerator,
		now:   now,
		byID:  make(map[string]*Reservation),
		cells: make(map[string]map[string]*roomDay),
	}
}

// Status reports the committed state of a slot.
func (g *Grid) Status(date, roomID string, slot timegrid.Slot) SlotStatus {
	if res, ok := g.ReservationAt(date, roomID, slot); ok {
		return SlotStatus{State: SlotReserved, Reservation: &res}
	}
	return SlotStatus{State: SlotAvailable}
}

// ReservationAt returns the reservation holding a slot.
func (g *Grid) ReservationAt(date, roomID string, slot timegrid.Slot) (Reservation, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	res := g.at(date, roomID, slot)
	if res == nil {
		return Reservation{}, false
	}
	return res.clone(), true
}

// ReservationIDAt returns the id of the reservation holding a slot.
func (g *Grid) ReservationIDAt(date, roomID string, slot timegrid.Slot) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	res := g.at(date, roomID, slot)
	if res == nil {
		return "", false
	}
	return res.ID, true
}

// RoomFree reports whether no slot of r is held in the room on date.
func (g *Grid) RoomFree(date, roomID string, r timegrid.Range) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.blockers(date, roomID, r, "")) == 0
}

// Get returns a reservation by id.
func (g *Grid) Get(id string) (Reservation, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	res, ok := g.byID[id]
	if !ok {
		return Reservation{}, &NotFoundError{Kind: "reservation", ID: id}
	}
	return res.clone(), nil
}

// Filter narrows List results. Empty fields match everything.
type Filter struct {
	Date              string
	RoomID            string
	AttendeeID        string
	OwnerID           string
	RecurrenceGroupID string
}

func (f Filter) matches(r *Reservation) bool {
	if f.Date != "" && r.Date != f.Date {
		return false
	}
	if f.RoomID != "" && r.RoomID != f.RoomID {
		return false
	}
	if f.AttendeeID != "" && !r.Involves(f.AttendeeID) {
		return false
	}
	if f.OwnerID != "" && r.CreatedBy != f.OwnerID && r.OrganizerID != f.OwnerID {
		return false
	}
	if f.RecurrenceGroupID != "" && r.RecurrenceGroupID != f.RecurrenceGroupID {
		return false
	}
	return true
}

// List returns matching reservations ordered by date, start time and room.
func (g *Grid) List(filter Filter) []Reservation {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Reservation, 0, len(g.byID))
	for _, res := range g.byID {
		if filter.matches(res) {
			out = append(out, res.clone())
		}
	}
	sortReservations(out)
	return out
}

// Create commits a single reservation.
func (g *Grid) Create(draft Draft) (Reservation, error) {
	created, err := g.CreateBatch([]Draft{draft})
	if err != nil {
		return Reservation{}, err
	}
	return created[0], nil
}

// CreateBatch commits every draft or none of them. Drafts in the same batch
// must not overlap each other either.
func (g *Grid) CreateBatch(drafts []Draft) ([]Reservation, error) {
	if len(drafts) == 0 {
		return nil, nil
	}
	for _, d := range drafts {
		if err := g.validateDraft(d); err != nil {
			return nil, err
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	claimed := make(map[string]string)
	for i, d := range drafts {
		if blockers := g.blockers(d.Date, d.RoomID, d.Slots, ""); len(blockers) > 0 {
			return nil, conflictFrom(d.Date, d.RoomID, blockers)
		}
		var clash []timegrid.Slot
		var clashIDs []string
		for _, s := range d.Slots.Slots() {
			key := d.Date + "|" + d.RoomID + "|" + s.String()
			if other, taken := claimed[key]; taken {
				clash = append(clash, s)
				if !slices.Contains(clashIDs, other) {
					clashIDs = append(clashIDs, other)
				}
				continue
			}
			claimed[key] = fmt.Sprintf("draft-%d", i)
		}
		if len(clash) > 0 {
			return nil, &ConflictError{Date: d.Date, RoomID: d.RoomID, Slots: clash, ReservationIDs: clashIDs}
		}
	}

	now := g.now()
	out := make([]Reservation, 0, len(drafts))
	for _, d := range drafts {
		res := &Reservation{
			ID:                  g.newID(),
			RoomID:              d.RoomID,
			Date:                d.Date,
			StartTime:           d.Slots.StartTime(),
			EndTime:             d.Slots.EndTime(),
			Title:               strings.TrimSpace(d.Title),
			OrganizerID:         d.OrganizerID,
			RequiredAttendeeIDs: slices.Clone(d.RequiredAttendeeIDs),
			OptionalAttendeeIDs: slices.Clone(d.OptionalAttendeeIDs),
			RecurrenceType:      d.RecurrenceType,
			RecurrenceGroupID:   d.RecurrenceGroupID,
			CreatedBy:           d.CreatedBy,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if res.RecurrenceType == "" {
			res.RecurrenceType = recurrence.PatternNone
		}
		g.write(res, d.Slots)
		out = append(out, res.clone())
	}
	return out, nil
}

// Delete removes a reservation. With cascade set and a recurrence group
// present, every reservation of the group is removed.
func (g *Grid) Delete(id string, cascade bool) ([]Reservation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	target, ok := g.byID[id]
	if !ok {
		return nil, &NotFoundError{Kind: "reservation", ID: id}
	}

	victims := []*Reservation{target}
	if cascade && target.RecurrenceGroupID != "" {
		victims = victims[:0]
		for _, res := range g.byID {
			if res.RecurrenceGroupID == target.RecurrenceGroupID {
				victims = append(victims, res)
			}
		}
	}

	out := make([]Reservation, 0, len(victims))
	for _, res := range victims {
		g.erase(res)
		out = append(out, res.clone())
	}
	sortReservations(out)
	return out, nil
}

// Move relocates a reservation to a new room and slot range on the same date.
// The reservation's own slots do not block the move. On conflict nothing changes.
func (g *Grid) Move(id, roomID string, slots timegrid.Range) (Reservation, error) {
	if !slots.Valid() {
		return Reservation{}, fmt.Errorf("%w: %s", ErrInvalidRange, slots)
	}
	if g.rooms != nil && !g.rooms.HasRoom(roomID) {
		return Reservation{}, &NotFoundError{Kind: "room", ID: roomID}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	current, ok := g.byID[id]
	if !ok {
		return Reservation{}, &NotFoundError{Kind: "reservation", ID: id}
	}
	if blockers := g.blockers(current.Date, roomID, slots, id); len(blockers) > 0 {
		return Reservation{}, conflictFrom(current.Date, roomID, blockers)
	}

	moved := current.clone()
	moved.RoomID = roomID
	moved.StartTime = slots.StartTime()
	moved.EndTime = slots.EndTime()
	moved.UpdatedAt = g.now()

	g.erase(current)
	g.write(&moved, slots)
	return moved.clone(), nil
}

// Restore replaces the grid contents with previously committed reservations.
// The grid is left unchanged when any reservation is invalid or overlaps another.
func (g *Grid) Restore(reservations []Reservation) error {
	staged := NewGrid(g.rooms, g.newID, g.now)
	for _, r := range reservations {
		if r.ID == "" {
			return fmt.Errorf("scheduler: restore: reservation without id")
		}
		if _, dup := staged.byID[r.ID]; dup {
			return fmt.Errorf("scheduler: restore: duplicate reservation id %q", r.ID)
		}
		slots, err := r.Range()
		if err != nil {
			return fmt.Errorf("scheduler: restore %s: %w", r.ID, err)
		}
		d := Draft{RoomID: r.RoomID, Date: r.Date, Slots: slots}
		if err := g.validateDraft(d); err != nil {
			return fmt.Errorf("scheduler: restore %s: %w", r.ID, err)
		}
		if blockers := staged.blockers(r.Date, r.RoomID, slots, ""); len(blockers) > 0 {
			return fmt.Errorf("scheduler: restore %s: %w", r.ID, conflictFrom(r.Date, r.RoomID, blockers))
		}
		res := r.clone()
		res.StartTime = slots.StartTime()
		res.EndTime = slots.EndTime()
		if res.RecurrenceType == "" {
			res.RecurrenceType = recurrence.PatternNone
		}
		staged.write(&res, slots)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.byID = staged.byID
	g.cells = staged.cells
	return nil
}

// Len returns the number of committed reservations.
func (g *Grid) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.byID)
}

func (g *Grid) validateDraft(d Draft) error {
	if _, err := recurrence.ParseDate(d.Date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, d.Date)
	}
	if !d.Slots.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidRange, d.Slots)
	}
	if g.rooms != nil && !g.rooms.HasRoom(d.RoomID) {
		return &NotFoundError{Kind: "room", ID: d.RoomID}
	}
	return nil
}

func (g *Grid) at(date, roomID string, slot timegrid.Slot) *Reservation {
	if !slot.Valid() {
		return nil
	}
	day := g.cells[date][roomID]
	if day == nil {
		return nil
	}
	return day[slot]
}

type blocker struct {
	slot timegrid.Slot
	id   string
}

func (g *Grid) blockers(date, roomID string, r timegrid.Range, ignoreID string) []blocker {
	day := g.cells[date][roomID]
	if day == nil {
		return nil
	}
	var out []blocker
	for _, s := range r.Slots() {
		if res := day[s]; res != nil && res.ID != ignoreID {
			out = append(out, blocker{slot: s, id: res.ID})
		}
	}
	return out
}

func (g *Grid) write(res *Reservation, slots timegrid.Range) {
	if g.rooms != nil && !g.rooms.HasRoom(res.RoomID) {
		panic(fmt.Sprintf("scheduler: grid entry for unknown room %q", res.RoomID))
	}
	rooms, ok := g.cells[res.Date]
	if !ok {
		rooms = make(map[string]*roomDay)
		g.cells[res.Date] = rooms
	}
	day, ok := rooms[res.RoomID]
	if !ok {
		day = &roomDay{}
		rooms[res.RoomID] = day
	}
	for _, s := range slots.Slots() {
		day[s] = res
	}
	g.byID[res.ID] = res
}

func (g *Grid) erase(res *Reservation) {
	if day := g.cells[res.Date][res.RoomID]; day != nil {
		empty := true
		for i, held := range day {
			if held != nil && held.ID == res.ID {
				day[i] = nil
			}
			if day[i] != nil {
				empty = false
			}
		}
		if empty {
			delete(g.cells[res.Date], res.RoomID)
		}
	}
	if len(g.cells[res.Date]) == 0 {
		delete(g.cells, res.Date)
	}
	delete(g.byID, res.ID)
}

func conflictFrom(date, roomID string, blockers []blocker) *ConflictError {
	err := &ConflictError{Date: date, RoomID: roomID}
	for _, b := range blockers {
		err.Slots = append(err.Slots, b.slot)
		if !slices.Contains(err.ReservationIDs, b.id) {
			err.ReservationIDs = append(err.ReservationIDs, b.id)
		}
	}
	return err
}

func sortReservations(rs []Reservation) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Date != rs[j].Date {
			return rs[i].Date < rs[j].Date
		}
		if rs[i].StartTime != rs[j].StartTime {
			return rs[i].StartTime < rs[j].StartTime
		}
		if rs[i].RoomID != rs[j].RoomID {
			return rs[i].RoomID < rs[j].RoomID
		}
		return rs[i].ID < rs[j].ID
	})
}
