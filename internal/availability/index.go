package availability

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/example/room-finder/internal/timegrid"
)

// DefaultCacheSize bounds the number of (date, employee) entries kept by an Index.
const DefaultCacheSize = 1024

// SlotSet marks the busy slots of one day. It is a value type and safe to share.
type SlotSet [timegrid.SlotsPerDay]bool

// Has reports whether the slot is busy.
func (s *SlotSet) Has(slot timegrid.Slot) bool {
	return slot.Valid() && s[slot]
}

// Any reports whether any slot of r is busy.
func (s *SlotSet) Any(r timegrid.Range) bool {
	for _, slot := range r.Slots() {
		if s[slot] {
			return true
		}
	}
	return false
}

// Len counts busy slots.
func (s *SlotSet) Len() int {
	n := 0
	for _, busy := range s {
		if busy {
			n++
		}
	}
	return n
}

// Slots lists busy slots in grid order.
func (s *SlotSet) Slots() []timegrid.Slot {
	var out []timegrid.Slot
	for i, busy := range s {
		if busy {
			out = append(out, timegrid.Slot(i))
		}
	}
	return out
}

// Mark flags every grid slot s with start <= s < end. Parts of the interval
// outside the grid are ignored.
func (s *SlotSet) Mark(start, end string) error {
	from, err := timegrid.ParseClock(start)
	if err != nil {
		return err
	}
	to, err := timegrid.ParseClock(end)
	if err != nil {
		return err
	}
	for i := range s {
		m := timegrid.Slot(i).Minutes()
		if m >= from && m < to {
			s[i] = true
		}
	}
	return nil
}

// Index projects Source intervals onto the grid and caches the result per
// (date, employee). The cache only avoids recomputation; sources must be
// deterministic for a given key.
type Index struct {
	source Source
	cache  *lru.Cache[string, SlotSet]
}

// NewIndex wraps source with a bounded cache. A non-positive size uses DefaultCacheSize.
func NewIndex(source Source, cacheSize int) (*Index, error) {
	if source == nil {
		return nil, fmt.Errorf("availability: source is required")
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, SlotSet](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("availability: create cache: %w", err)
	}
	return &Index{source: source, cache: cache}, nil
}

// Intervals returns the raw busy intervals from the source.
func (x *Index) Intervals(employeeID, date string) ([]BusyInterval, error) {
	return x.source.BusyIntervals(employeeID, date)
}

// BusySlots returns the busy slots of an employee on a date.
func (x *Index) BusySlots(employeeID, date string) (SlotSet, error) {
	key := cacheKey(employeeID, date)
	if set, ok := x.cache.Get(key); ok {
		return set, nil
	}

	intervals, err := x.source.BusyIntervals(employeeID, date)
	if err != nil {
		return SlotSet{}, err
	}
	var set SlotSet
	for _, iv := range intervals {
		if err := set.Mark(iv.Start, iv.End); err != nil {
			return SlotSet{}, fmt.Errorf("availability: interval %q for %s: %w", iv.Title, employeeID, err)
		}
	}
	x.cache.Add(key, set)
	return set, nil
}

// IsAvailable reports whether the employee has no busy slot within r.
func (x *Index) IsAvailable(employeeID, date string, r timegrid.Range) (bool, error) {
	set, err := x.BusySlots(employeeID, date)
	if err != nil {
		return false, err
	}
	return !set.Any(r), nil
}
