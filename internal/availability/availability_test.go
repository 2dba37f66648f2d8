package availability

import (
	"errors"
	"reflect"
	"testing"

	"github.com/example/room-finder/internal/timegrid"
)

type indexStub map[string]int

func (s indexStub) EmployeeIndex(id string) (int, bool) {
	i, ok := s[id]
	return i, ok
}

type countingSource struct {
	inner Source
	calls int
}

func (c *countingSource) BusyIntervals(employeeID, date string) ([]BusyInterval, error) {
	c.calls++
	return c.inner.BusyIntervals(employeeID, date)
}

func mustRange(t *testing.T, start, end string) timegrid.Range {
	t.Helper()
	r, err := timegrid.NewRange(start, end)
	if err != nil {
		t.Fatalf("NewRange(%s, %s) returned error: %v", start, end, err)
	}
	return r
}

func TestGeneratorIsDeterministic(t *testing.T) {
	t.Parallel()

	employees := indexStub{"e1": 0, "e2": 1, "e3": 2}
	gen := NewGenerator(employees)

	for id := range employees {
		first, err := gen.BusyIntervals(id, "2024-03-12")
		if err != nil {
			t.Fatalf("BusyIntervals returned error: %v", err)
		}
		second, err := NewGenerator(employees).BusyIntervals(id, "2024-03-12")
		if err != nil {
			t.Fatalf("BusyIntervals returned error: %v", err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("expected identical intervals for %s, got %v and %v", id, first, second)
		}
	}
}

func TestGeneratorVariesAcrossDates(t *testing.T) {
	t.Parallel()

	employees := indexStub{}
	for i := 0; i < 20; i++ {
		employees[string(rune('a'+i))] = i
	}
	gen := NewGenerator(employees)

	differs := false
	for id := range employees {
		a, _ := gen.BusyIntervals(id, "2024-03-12")
		b, _ := gen.BusyIntervals(id, "2024-03-13")
		if !reflect.DeepEqual(a, b) {
			differs = true
			break
		}
	}
	if !differs {
		t.Fatalf("expected at least one schedule to change between dates")
	}
}

func TestGeneratorWeekendsAreFree(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(indexStub{"e1": 0})
	for _, date := range []string{"2024-03-16", "2024-03-17"} {
		got, err := gen.BusyIntervals("e1", date)
		if err != nil {
			t.Fatalf("BusyIntervals returned error: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected weekend %s to be free, got %v", date, got)
		}
	}
}

func TestGeneratorErrors(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(indexStub{"e1": 0})
	if _, err := gen.BusyIntervals("ghost", "2024-03-12"); !errors.Is(err, ErrUnknownEmployee) {
		t.Fatalf("expected ErrUnknownEmployee, got %v", err)
	}
	if _, err := gen.BusyIntervals("e1", "03/12/2024"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestBusySlotsHalfOpenInterval(t *testing.T) {
	t.Parallel()

	src := NewStatic(BusyInterval{EmployeeID: "e1", Date: "2024-03-12", Start: "10:00", End: "11:00"})
	idx, err := NewIndex(src, 8)
	if err != nil {
		t.Fatalf("NewIndex returned error: %v", err)
	}

	set, err := idx.BusySlots("e1", "2024-03-12")
	if err != nil {
		t.Fatalf("BusySlots returned error: %v", err)
	}
	if set.Len() != 6 {
		t.Fatalf("expected 6 busy slots, got %d", set.Len())
	}
	tenFifty, _ := timegrid.Index("10:50")
	eleven, _ := timegrid.Index("11:00")
	if !set.Has(tenFifty) {
		t.Fatalf("expected 10:50 to be busy")
	}
	if set.Has(eleven) {
		t.Fatalf("expected 11:00 to be free")
	}

	free, err := idx.IsAvailable("e1", "2024-03-12", mustRange(t, "11:00", "12:00"))
	if err != nil || !free {
		t.Fatalf("expected 11:00-12:00 to be available, got %v %v", free, err)
	}
	busy, err := idx.IsAvailable("e1", "2024-03-12", mustRange(t, "10:30", "11:30"))
	if err != nil || busy {
		t.Fatalf("expected 10:30-11:30 to be unavailable, got %v %v", busy, err)
	}
}

func TestBusySlotsClipsToGrid(t *testing.T) {
	t.Parallel()

	src := NewStatic(BusyInterval{EmployeeID: "e1", Date: "2024-03-12", Start: "05:00", End: "06:20"})
	idx, _ := NewIndex(src, 0)

	set, err := idx.BusySlots("e1", "2024-03-12")
	if err != nil {
		t.Fatalf("BusySlots returned error: %v", err)
	}
	if got := set.Slots(); !reflect.DeepEqual(got, []timegrid.Slot{0, 1}) {
		t.Fatalf("expected slots [0 1], got %v", got)
	}
}

func TestIndexCachesPerKey(t *testing.T) {
	t.Parallel()

	src := &countingSource{inner: NewStatic()}
	idx, _ := NewIndex(src, 4)

	for i := 0; i < 3; i++ {
		if _, err := idx.BusySlots("e1", "2024-03-12"); err != nil {
			t.Fatalf("BusySlots returned error: %v", err)
		}
	}
	if src.calls != 1 {
		t.Fatalf("expected one source call, got %d", src.calls)
	}

	for _, id := range []string{"e2", "e3", "e4", "e5"} {
		if _, err := idx.BusySlots(id, "2024-03-12"); err != nil {
			t.Fatalf("BusySlots returned error: %v", err)
		}
	}
	if _, err := idx.BusySlots("e1", "2024-03-12"); err != nil {
		t.Fatalf("BusySlots returned error: %v", err)
	}
	if src.calls != 6 {
		t.Fatalf("expected the oldest entry to be evicted and reloaded, got %d calls", src.calls)
	}
}

func TestIndexRejectsMalformedIntervals(t *testing.T) {
	t.Parallel()

	src := NewStatic(BusyInterval{EmployeeID: "e1", Date: "2024-03-12", Start: "ten", End: "11:00"})
	idx, _ := NewIndex(src, 4)
	if _, err := idx.BusySlots("e1", "2024-03-12"); !errors.Is(err, timegrid.ErrInvalidTime) {
		t.Fatalf("expected ErrInvalidTime, got %v", err)
	}
}
