package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/room-finder/internal/timegrid"
)

// DateLayout is the calendar date format used across the system.
const DateLayout = "2006-01-02"

// MaxOccurrences bounds a single expansion.
const MaxOccurrences = 366

// Pattern represents supported repeat intervals.
type Pattern string

const (
	// PatternNone books a single date.
	PatternNone Pattern = "none"
	// PatternDaily repeats every day.
	PatternDaily Pattern = "daily"
	// PatternWeekly repeats every seven days.
	PatternWeekly Pattern = "weekly"
	// PatternBiweekly repeats every fourteen days.
	PatternBiweekly Pattern = "biweekly"
	// PatternMonthly repeats on the anchor's day of month, clamped to shorter months.
	PatternMonthly Pattern = "monthly"
)

var (
	// ErrInvalidPattern indicates the repeat pattern is not supported.
	ErrInvalidPattern = errors.New("recurrence: invalid pattern")
	// ErrInvalidDate indicates a date is not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("recurrence: invalid date")
	// ErrTooManyOccurrences indicates the expansion would exceed MaxOccurrences.
	ErrTooManyOccurrences = errors.New("recurrence: too many occurrences")
)

var patternAliases = map[string]Pattern{
	"":          PatternNone,
	"none":      PatternNone,
	"once":      PatternNone,
	"daily":     PatternDaily,
	"매일":        PatternDaily,
	"weekly":    PatternWeekly,
	"매주":        PatternWeekly,
	"biweekly":  PatternBiweekly,
	"bi-weekly": PatternBiweekly,
	"격주":        PatternBiweekly,
	"monthly":   PatternMonthly,
	"매월":        PatternMonthly,
}

// ParsePattern maps a label onto a Pattern. An empty label means PatternNone.
func ParsePattern(value string) (Pattern, error) {
	p, ok := patternAliases[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidPattern, value)
	}
	return p, nil
}

// Repeats reports whether the pattern produces more than the anchor date.
func (p Pattern) Repeats() bool {
	return p != PatternNone && p != ""
}

// Valid reports whether p is one of the known patterns.
func (p Pattern) Valid() bool {
	switch p {
	case PatternNone, PatternDaily, PatternWeekly, PatternBiweekly, PatternMonthly:
		return true
	}
	return false
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(value string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return d, nil
}

// Expand lists the dates a booking repeats on.
//
// The start date is always first. Each later date is measured from the anchor
// rather than the previous result, so a monthly series anchored on the 31st
// lands on the last day of short months and returns to the 31st afterwards.
// Expansion stops at the first date after end.
func Expand(start, end string, pattern Pattern) ([]string, error) {
	if !pattern.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}
	anchor, err := ParseDate(start)
	if err != nil {
		return nil, err
	}
	dates := []string{anchor.Format(DateLayout)}
	if !pattern.Repeats() {
		return dates, nil
	}

	until, err := ParseDate(end)
	if err != nil {
		return nil, err
	}

	for k := 1; ; k++ {
		next := step(anchor, pattern, k)
		if next.After(until) {
			break
		}
		if len(dates) == MaxOccurrences {
			return nil, fmt.Errorf("%w: more than %d dates between %s and %s", ErrTooManyOccurrences, MaxOccurrences, start, end)
		}
		dates = append(dates, next.Format(DateLayout))
	}
	return dates, nil
}

func step(anchor time.Time, pattern Pattern, k int) time.Time {
	switch pattern {
	case PatternDaily:
		return anchor.AddDate(0, 0, k)
	case PatternWeekly:
		return anchor.AddDate(0, 0, 7*k)
	case PatternBiweekly:
		return anchor.AddDate(0, 0, 14*k)
	case PatternMonthly:
		y, m, d := anchor.Date()
		first := time.Date(y, m+time.Month(k), 1, 0, 0, 0, 0, time.UTC)
		last := first.AddDate(0, 1, -1).Day()
		return time.Date(first.Year(), first.Month(), min(d, last), 0, 0, 0, 0, time.UTC)
	}
	return anchor
}

// Occupancy answers which reservation, if any, holds a room slot on a date.
type Occupancy interface {
	ReservationIDAt(date, roomID string, slot timegrid.Slot) (string, bool)
}

// Conflicts returns the dates on which any slot of r in the room is held by a
// reservation outside excludeIDs. Excluded ids are the caller's own draft.
func Conflicts(dates []string, roomID string, r timegrid.Range, occupancy Occupancy, excludeIDs ...string) []string {
	if occupancy == nil {
		return nil
	}
	excluded := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}

	var out []string
	for _, date := range dates {
		for _, slot := range r.Slots() {
			id, ok := occupancy.ReservationIDAt(date, roomID, slot)
			if !ok {
				continue
			}
			if _, mine := excluded[id]; mine {
				continue
			}
			out = append(out, date)
			break
		}
	}
	return out
}
