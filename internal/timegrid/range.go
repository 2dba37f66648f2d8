package timegrid

import (
	"errors"
	"fmt"
)

// ErrEmptyRange indicates the end of a range does not follow its start.
var ErrEmptyRange = errors.New("timegrid: range end must follow start")

// Range is an inclusive span of slots within a single day.
type Range struct {
	Start Slot
	End   Slot
}

// NewRange resolves a [start, end) wall-clock window onto the grid.
func NewRange(start, end string) (Range, error) {
	s, err := StartSlot(start)
	if err != nil {
		return Range{}, err
	}
	e, err := EndSlot(end)
	if err != nil {
		return Range{}, err
	}
	if e < s {
		return Range{}, fmt.Errorf("%w: %s-%s", ErrEmptyRange, start, end)
	}
	return Range{Start: s, End: e}, nil
}

// RangeFor returns the range of n slots beginning at start, or false when it
// would run past the end of the grid.
func RangeFor(start Slot, n int) (Range, bool) {
	if n <= 0 || !start.Valid() {
		return Range{}, false
	}
	end := start + Slot(n-1)
	if !end.Valid() {
		return Range{}, false
	}
	return Range{Start: start, End: end}, true
}

// SlotsFor returns the number of slots needed to cover d minutes.
func SlotsFor(minutes int) int {
	if minutes <= 0 {
		return 0
	}
	return (minutes + SlotMinutes - 1) / SlotMinutes
}

// Valid reports whether both bounds are on the grid and ordered.
func (r Range) Valid() bool {
	return r.Start.Valid() && r.End.Valid() && r.Start <= r.End
}

// Len returns the number of slots in the range.
func (r Range) Len() int {
	if !r.Valid() {
		return 0
	}
	return int(r.End-r.Start) + 1
}

// Contains reports whether s lies within the range.
func (r Range) Contains(s Slot) bool {
	return s >= r.Start && s <= r.End
}

// Overlaps reports whether the ranges share at least one slot.
func (r Range) Overlaps(other Range) bool {
	return r.Start <= other.End && other.Start <= r.End
}

// Slots lists every slot in the range.
func (r Range) Slots() []Slot {
	out := make([]Slot, 0, r.Len())
	for s := r.Start; s <= r.End && r.Valid(); s++ {
		out = append(out, s)
	}
	return out
}

// StartTime is the wall-clock start of the first slot.
func (r Range) StartTime() string {
	return r.Start.String()
}

// EndTime is the wall-clock end of the last slot; the final slot ends at 24:00.
func (r Range) EndTime() string {
	return FormatClock(r.End.Minutes() + SlotMinutes)
}

// Minutes returns the covered duration.
func (r Range) Minutes() int {
	return r.Len() * SlotMinutes
}

func (r Range) String() string {
	return r.StartTime() + "-" + r.EndTime()
}
