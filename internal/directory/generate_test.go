package directory

import (
	"reflect"
	"testing"
)

func TestGenerateIsDeterministic(t *testing.T) {
	t.Parallel()

	a, err := Generate(GenerateOptions{Seed: 7})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	b, err := Generate(GenerateOptions{Seed: 7})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if !reflect.DeepEqual(a.Employees(), b.Employees()) {
		t.Fatalf("expected identical employees for equal seeds")
	}
	if !reflect.DeepEqual(a.Rooms(), b.Rooms()) {
		t.Fatalf("expected identical rooms for equal seeds")
	}
	if !reflect.DeepEqual(a.Groups(), b.Groups()) {
		t.Fatalf("expected identical groups for equal seeds")
	}
}

func TestGenerateShape(t *testing.T) {
	t.Parallel()

	c, err := Generate(GenerateOptions{Seed: 1, Employees: 20})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if got := len(c.Buildings()); got != 3 {
		t.Fatalf("expected 3 buildings, got %d", got)
	}
	if got := len(c.Rooms()); got != 15 {
		t.Fatalf("expected 15 rooms, got %d", got)
	}
	if got := len(c.Employees()); got != 20 {
		t.Fatalf("expected 20 employees, got %d", got)
	}

	total := 0
	for _, team := range c.Teams() {
		total += team.MemberCount
	}
	if total != 20 {
		t.Fatalf("expected team member counts to cover all employees, got %d", total)
	}

	for _, room := range c.Rooms() {
		if !room.HasAmenity("whiteboard") {
			t.Fatalf("expected every room to list a whiteboard, %s did not", room.ID)
		}
	}

	emails := make(map[string]struct{})
	for _, e := range c.Employees() {
		if _, dup := emails[e.Email]; dup {
			t.Fatalf("duplicate email %s", e.Email)
		}
		emails[e.Email] = struct{}{}
	}
}

func TestGenerateDefaultsEmployeeCount(t *testing.T) {
	t.Parallel()

	c, err := Generate(GenerateOptions{})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if got := len(c.Employees()); got != DefaultEmployeeCount {
		t.Fatalf("expected %d employees, got %d", DefaultEmployeeCount, got)
	}
}
