// Package optimizer ranks candidate meeting windows by attendee and room
// availability.
package optimizer

import (
	"errors"
	"fmt"
	"sort"

	"github.com/example/room-finder/internal/timegrid"
)

const (
	// MaxResults is the number of windows returned by Rank.
	MaxResults = 10
	// RequiredWeight is the score of each available required attendee.
	RequiredWeight = 1000
	// OptionalWeight is the score of each available optional attendee.
	OptionalWeight = 1
	// BusinessHoursBonus is added for starts in [BusinessStartHour, BusinessEndHour).
	// It must stay below RequiredWeight.
	BusinessHoursBonus = 500
	// BusinessStartHour is the first hour earning the bonus.
	BusinessStartHour = 9
	// BusinessEndHour is the exclusive end of the bonus hours.
	BusinessEndHour = 18
)

// ErrInvalidDuration indicates the meeting duration is not positive.
var ErrInvalidDuration = errors.New("optimizer: duration must be positive")

// Availability answers whether an employee is free for a window.
type Availability interface {
	IsAvailable(employeeID, date string, r timegrid.Range) (bool, error)
}

// Rooms answers whether a room is free for a window.
type Rooms interface {
	RoomFree(date, roomID string, r timegrid.Range) bool
}

// Request describes a ranking query.
type Request struct {
	Required        []string
	Optional        []string
	Date            string
	DurationMinutes int
	// RoomIDs are the candidate rooms, typically the selected floor or the whole catalog.
	RoomIDs []string
}

// Window is a ranked candidate.
type Window struct {
	Date                 string         `json:"date"`
	StartTime            string         `json:"start_time"`
	EndTime              string         `json:"end_time"`
	Slots                timegrid.Range `json:"-"`
	Score                int            `json:"score"`
	AvailableRequired    []string       `json:"available_required"`
	UnavailableRequired  []string       `json:"unavailable_required"`
	AvailableOptional    []string       `json:"available_optional"`
	UnavailableOptional  []string       `json:"unavailable_optional"`
	FreeRoomIDs          []string       `json:"free_room_ids"`
	AllRequiredAvailable bool           `json:"all_required_available"`
}

// Engine ranks windows against availability and the reservation grid.
type Engine struct {
	availability Availability
	rooms        Rooms
}

// New wires the engine.
func New(availability Availability, rooms Rooms) *Engine {
	return &Engine{availability: availability, rooms: rooms}
}

// Rank enumerates on-the-hour starts and returns up to MaxResults windows,
// best first. Windows with no free room or no available attendee are dropped,
// so an empty attendee set yields no windows.
func (e *Engine) Rank(req Request) ([]Window, error) {
	if req.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDuration, req.DurationMinutes)
	}
	if len(req.Required) == 0 && len(req.Optional) == 0 {
		return nil, nil
	}
	needed := timegrid.SlotsFor(req.DurationMinutes)

	var windows []Window
	for i := 0; i < timegrid.SlotsPerDay; i++ {
		start := timegrid.Slot(i)
		if !start.OnHour() {
			continue
		}
		span, ok := timegrid.RangeFor(start, needed)
		if !ok {
			continue
		}

		free := e.freeRooms(req.Date, req.RoomIDs, span)
		if len(free) == 0 {
			continue
		}

		w := Window{
			Date:        req.Date,
			StartTime:   span.StartTime(),
			EndTime:     span.EndTime(),
			Slots:       span,
			FreeRoomIDs: free,
		}
		var err error
		if w.AvailableRequired, w.UnavailableRequired, err = e.partition(req.Required, req.Date, span); err != nil {
			return nil, err
		}
		if w.AvailableOptional, w.UnavailableOptional, err = e.partition(req.Optional, req.Date, span); err != nil {
			return nil, err
		}
		if len(w.AvailableRequired)+len(w.AvailableOptional) == 0 {
			continue
		}
		w.AllRequiredAvailable = len(w.UnavailableRequired) == 0
		w.Score = score(len(w.AvailableRequired), len(w.AvailableOptional), start.Hour())
		windows = append(windows, w)
	}

	sort.SliceStable(windows, func(i, j int) bool {
		if windows[i].Score != windows[j].Score {
			return windows[i].Score > windows[j].Score
		}
		return windows[i].StartTime < windows[j].StartTime
	})
	if len(windows) > MaxResults {
		windows = windows[:MaxResults]
	}
	return windows, nil
}

func score(required, optional, hour int) int {
	s := RequiredWeight*required + OptionalWeight*optional
	if hour >= BusinessStartHour && hour < BusinessEndHour {
		s += BusinessHoursBonus
	}
	return s
}

func (e *Engine) partition(ids []string, date string, span timegrid.Range) (available, unavailable []string, err error) {
	available = []string{}
	unavailable = []string{}
	for _, id := range ids {
		ok, err := e.availability.IsAvailable(id, date, span)
		if err != nil {
			return nil, nil, fmt.Errorf("optimizer: availability for %s: %w", id, err)
		}
		if ok {
			available = append(available, id)
		} else {
			unavailable = append(unavailable, id)
		}
	}
	return available, unavailable, nil
}

func (e *Engine) freeRooms(date string, roomIDs []string, span timegrid.Range) []string {
	var out []string
	for _, id := range roomIDs {
		if e.rooms == nil || e.rooms.RoomFree(date, id, span) {
			out = append(out, id)
		}
	}
	return out
}
