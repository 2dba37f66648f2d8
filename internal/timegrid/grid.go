// Package timegrid defines the fixed daily grid of schedulable instants and
// the conversions between wall-clock strings and slot indices.
//
// The grid runs from 06:00 to 24:00 in 10-minute steps. Times are local
// wall-clock strings in the zero-padded "HH:MM" form; no time zone is modelled.
package timegrid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// FirstHour is the hour of the first slot of the day.
	FirstHour = 6
	// LastHour is the exclusive upper bound of the grid.
	LastHour = 24
	// SlotMinutes is the width of a single slot.
	SlotMinutes = 10
	// SlotsPerDay is the number of slots between FirstHour and LastHour.
	SlotsPerDay = (LastHour - FirstHour) * 60 / SlotMinutes

	minutesPerDay = 24 * 60
	gridStart     = FirstHour * 60
	gridEnd       = LastHour * 60
)

var (
	// ErrNotFound indicates the time is not a slot boundary on the grid.
	ErrNotFound = errors.New("timegrid: time is not on the grid")
	// ErrOutOfRange indicates the time falls outside the grid.
	ErrOutOfRange = errors.New("timegrid: time outside 06:00-24:00")
	// ErrInvalidTime indicates the value is not an HH:MM wall-clock string.
	ErrInvalidTime = errors.New("timegrid: invalid time")
)

// Slot is an ordinal over the daily grid. Slot 0 starts at 06:00.
type Slot int

var times = func() []string {
	out := make([]string, 0, SlotsPerDay)
	for m := gridStart; m < gridEnd; m += SlotMinutes {
		out = append(out, formatClock(m))
	}
	return out
}()

// Times returns the start time of every slot in grid order.
func Times() []string {
	out := make([]string, len(times))
	copy(out, times)
	return out
}

// Valid reports whether the slot lies on the grid.
func (s Slot) Valid() bool {
	return s >= 0 && int(s) < SlotsPerDay
}

// String returns the slot's start time or "invalid" when off-grid.
func (s Slot) String() string {
	if !s.Valid() {
		return "invalid"
	}
	return times[s]
}

// Minutes returns the slot start as minutes since midnight.
func (s Slot) Minutes() int {
	return gridStart + int(s)*SlotMinutes
}

// Hour returns the hour of the slot start.
func (s Slot) Hour() int {
	return s.Minutes() / 60
}

// OnHour reports whether the slot starts at :00.
func (s Slot) OnHour() bool {
	return s.Minutes()%60 == 0
}

// Last returns the final slot of the day (23:50).
func Last() Slot {
	return Slot(SlotsPerDay - 1)
}

// Index returns the slot that starts exactly at t.
func Index(t string) (Slot, error) {
	m, err := ParseClock(t)
	if err != nil {
		return 0, err
	}
	if m < gridStart || m >= gridEnd {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, t)
	}
	if (m-gridStart)%SlotMinutes != 0 {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, t)
	}
	return Slot((m - gridStart) / SlotMinutes), nil
}

// TimeAt returns the start time of slot i.
func TimeAt(i int) (string, error) {
	if i < 0 || i >= SlotsPerDay {
		return "", fmt.Errorf("%w: slot %d", ErrOutOfRange, i)
	}
	return times[i], nil
}

// AddMinutes shifts t by m minutes and wraps around midnight.
//
// The wrap is deliberate: 23:30 plus 60 minutes is 00:30. Callers that care
// about day rollover must compare the result against the input themselves.
func AddMinutes(t string, m int) (string, error) {
	base, err := ParseClock(t)
	if err != nil {
		return "", err
	}
	total := ((base+m)%minutesPerDay + minutesPerDay) % minutesPerDay
	return formatClock(total), nil
}

// ParseClock converts "HH:MM" into minutes since midnight. "24:00" is accepted
// as the end of the day.
func ParseClock(t string) (int, error) {
	t = strings.TrimSpace(t)
	hh, mm, ok := strings.Cut(t, ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, t)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, t)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, t)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, t)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:MM". 1440 renders as "24:00".
func FormatClock(minutes int) string {
	return formatClock(minutes)
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// StartSlot resolves a range start. Off-grid starts round down to the slot
// that contains them.
func StartSlot(t string) (Slot, error) {
	m, err := ParseClock(t)
	if err != nil {
		return 0, err
	}
	if m < gridStart || m >= gridEnd {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, t)
	}
	return Slot((m - gridStart) / SlotMinutes), nil
}

// EndSlot resolves a range end to the last slot strictly before the first slot
// whose start is at or after t. When no slot starts at or after t the last
// slot of the day is returned.
func EndSlot(t string) (Slot, error) {
	m, err := ParseClock(t)
	if err != nil {
		return 0, err
	}
	if m <= gridStart {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, t)
	}
	first := -1
	for i := 0; i < SlotsPerDay; i++ {
		if Slot(i).Minutes() >= m {
			first = i
			break
		}
	}
	if first < 0 {
		return Last(), nil
	}
	return Slot(first - 1), nil
}
