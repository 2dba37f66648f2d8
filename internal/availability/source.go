// Package availability derives per-employee busy time for a date and projects
// it onto the daily time grid.
package availability

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"sync"
	"time"
)

const dateLayout = "2006-01-02"

var (
	// ErrUnknownEmployee is returned when a source has no stable index for the employee.
	ErrUnknownEmployee = errors.New("availability: unknown employee")
	// ErrInvalidDate is returned when a date is not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("availability: invalid date")
)

// BusyInterval is a half-open [Start, End) commitment on one date.
type BusyInterval struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Title      string `json:"title"`
}

// Source supplies busy intervals for an employee on a date.
type Source interface {
	BusyIntervals(employeeID, date string) ([]BusyInterval, error)
}

// EmployeeIndexer maps an employee id to a stable ordinal.
type EmployeeIndexer interface {
	EmployeeIndex(id string) (int, bool)
}

type template struct {
	start, end, title string
}

// Day shapes mirror a typical office calendar. The last shape is an open day.
var dayShapes = [][]template{
	{{"10:00", "11:00", "Team meeting"}},
	{{"14:00", "15:30", "Project review"}},
	{{"09:30", "10:30", "Stand-up"}, {"15:00", "16:00", "Code review"}},
	{{"13:00", "14:00", "1:1"}},
	nil,
}

var extraTitles = []string{"Focus time", "Customer call", "Interview", "Workshop"}

// Generator synthesizes repeatable calendars. The PRNG for an (employee, date)
// pair is seeded from the FNV-1a hash of the date mixed with the employee's
// catalog index, so a date always reproduces the same schedule.
type Generator struct {
	employees EmployeeIndexer
}

// NewGenerator builds a Generator over the given employee index.
func NewGenerator(employees EmployeeIndexer) *Generator {
	return &Generator{employees: employees}
}

// BusyIntervals implements Source.
func (g *Generator) BusyIntervals(employeeID, date string) ([]BusyInterval, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	idx, ok := g.employees.EmployeeIndex(employeeID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEmployee, employeeID)
	}
	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return nil, nil
	}

	rng := rand.New(newSplitMix(seedFor(date, idx)))

	var out []BusyInterval
	for _, t := range dayShapes[rng.IntN(len(dayShapes))] {
		out = append(out, BusyInterval{EmployeeID: employeeID, Date: date, Start: t.start, End: t.end, Title: t.title})
	}

	if rng.IntN(10) < 3 {
		// 08:00 to 16:50 in 10-minute steps, lasting 30 to 90 minutes.
		startMin := 8*60 + rng.IntN(54)*10
		length := 30 + rng.IntN(7)*10
		out = append(out, BusyInterval{
			EmployeeID: employeeID,
			Date:       date,
			Start:      clock(startMin),
			End:        clock(startMin + length),
			Title:      extraTitles[rng.IntN(len(extraTitles))],
		})
	}
	return out, nil
}

func seedFor(date string, index int) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(date))
	return h.Sum64() ^ (uint64(index+1) * 0x9e3779b97f4a7c15)
}

func clock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// splitMix is the SplitMix64 generator. It satisfies rand.Source.
type splitMix struct {
	state uint64
}

func newSplitMix(seed uint64) *splitMix {
	return &splitMix{state: seed}
}

func (s *splitMix) Uint64() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Static serves a fixed set of intervals. It is safe for concurrent use.
type Static struct {
	mu        sync.RWMutex
	intervals map[string][]BusyInterval
}

// NewStatic builds a Static source from the given intervals.
func NewStatic(intervals ...BusyInterval) *Static {
	s := &Static{intervals: make(map[string][]BusyInterval)}
	s.Add(intervals...)
	return s
}

// Add appends intervals to the source. An Index that already cached a key
// keeps serving the earlier result for it.
func (s *Static) Add(intervals ...BusyInterval) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, iv := range intervals {
		k := cacheKey(iv.EmployeeID, iv.Date)
		s.intervals[k] = append(s.intervals[k], iv)
	}
}

// BusyIntervals implements Source.
func (s *Static) BusyIntervals(employeeID, date string) ([]BusyInterval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.intervals[cacheKey(employeeID, date)]
	if len(src) == 0 {
		return nil, nil
	}
	out := make([]BusyInterval, len(src))
	copy(out, src)
	return out, nil
}

func cacheKey(employeeID, date string) string {
	return date + "|" + employeeID
}
