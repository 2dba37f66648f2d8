package directory

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// GenerateOptions controls the synthetic catalog produced by Generate.
type GenerateOptions struct {
	// Seed fixes every random choice; equal seeds produce equal catalogs.
	Seed uint64
	// Employees is the number of employees to create. Zero uses DefaultEmployeeCount.
	Employees int
}

// DefaultEmployeeCount is used when GenerateOptions.Employees is zero.
const DefaultEmployeeCount = 48

type roomSpec struct {
	name     string
	capacity int
}

type floorSpec struct {
	name  string
	rooms []roomSpec
}

type buildingSpec struct {
	key    string
	name   string
	floors []floorSpec
}

var campus = []buildingSpec{
	{key: "a", name: "Main Hall", floors: []floorSpec{
		{name: "1F", rooms: []roomSpec{{"Meeting Room A", 6}, {"Meeting Room B", 8}}},
		{name: "2F", rooms: []roomSpec{{"Conference Hall", 20}, {"Huddle 1", 4}, {"Huddle 2", 4}}},
		{name: "3F", rooms: []roomSpec{{"Executive Room", 12}}},
	}},
	{key: "b", name: "Annex", floors: []floorSpec{
		{name: "1F", rooms: []roomSpec{{"Focus Room 1", 6}, {"Focus Room 2", 6}}},
		{name: "2F", rooms: []roomSpec{{"Seminar Room", 30}}},
	}},
	{key: "c", name: "North Wing", floors: []floorSpec{
		{name: "1F", rooms: []roomSpec{{"Consult 1", 4}, {"Consult 2", 4}}},
		{name: "2F", rooms: []roomSpec{{"Project Room A", 8}, {"Project Room B", 8}}},
		{name: "3F", rooms: []roomSpec{{"Training Center", 40}}},
		{name: "4F", rooms: []roomSpec{{"Studio", 10}}},
	}},
}

var amenityPool = []string{"whiteboard", "projector", "video conference", "microphone", "display"}

var teamSpecs = []struct {
	name       string
	department string
}{
	{"Backend", "Engineering"},
	{"Frontend", "Engineering"},
	{"Infrastructure", "Engineering"},
	{"Product Planning", "Planning"},
	{"UX", "Design"},
	{"Digital Marketing", "Marketing"},
	{"People", "HR"},
	{"General Affairs", "Operations"},
}

var (
	givenNames  = []string{"Alex", "Bailey", "Casey", "Dana", "Eli", "Finley", "Gray", "Harper", "Indigo", "Jordan", "Kai", "Logan", "Morgan", "Noel", "Parker", "Quinn", "Riley", "Sage", "Taylor", "Val"}
	familyNames = []string{"Kim", "Lee", "Park", "Choi", "Jung", "Kang", "Cho", "Yoon", "Jang", "Lim", "Han", "Oh"}
	positions   = []string{"Team Lead", "Senior", "Manager", "Associate", "Junior"}
)

// Generate builds a deterministic synthetic catalog.
func Generate(opts GenerateOptions) (*Catalog, error) {
	count := opts.Employees
	if count <= 0 {
		count = DefaultEmployeeCount
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	var data Data
	for _, b := range campus {
		buildingID := "building_" + b.key
		data.Buildings = append(data.Buildings, Building{ID: buildingID, Name: b.name})
		for fi, f := range b.floors {
			floorID := fmt.Sprintf("floor_%s_%d", b.key, fi+1)
			data.Floors = append(data.Floors, Floor{ID: floorID, Name: f.name, BuildingID: buildingID})
			for ri, r := range f.rooms {
				data.Rooms = append(data.Rooms, Room{
					ID:         fmt.Sprintf("room_%s%d_%d", b.key, fi+1, ri+1),
					Name:       r.name,
					Capacity:   r.capacity,
					FloorID:    floorID,
					BuildingID: buildingID,
					Amenities:  pickAmenities(rng, r.capacity),
				})
			}
		}
	}

	for i, t := range teamSpecs {
		data.Teams = append(data.Teams, Team{ID: fmt.Sprintf("team_%02d", i+1), Name: t.name})
	}

	used := make(map[string]int, count)
	for i := 0; i < count; i++ {
		team := i % len(teamSpecs)
		given := givenNames[rng.IntN(len(givenNames))]
		family := familyNames[rng.IntN(len(familyNames))]
		name := given + " " + family
		used[name]++
		email := strings.ToLower(given + "." + family)
		if n := used[name]; n > 1 {
			email = fmt.Sprintf("%s%d", email, n)
		}
		data.Employees = append(data.Employees, Employee{
			ID:         fmt.Sprintf("emp_%03d", i+1),
			Name:       name,
			Department: teamSpecs[team].department,
			TeamID:     data.Teams[team].ID,
			Position:   positions[rng.IntN(len(positions))],
			Email:      email + "@example.com",
		})
	}

	data.Groups = generateGroups(rng, data.Employees)

	return New(data)
}

func pickAmenities(rng *rand.Rand, capacity int) []string {
	out := []string{"whiteboard"}
	for _, a := range amenityPool[1:] {
		threshold := 0.35
		if capacity >= 10 {
			threshold = 0.75
		}
		if rng.Float64() < threshold {
			out = append(out, a)
		}
	}
	return out
}

func generateGroups(rng *rand.Rand, employees []Employee) []Group {
	if len(employees) == 0 {
		return nil
	}
	specs := []struct {
		name        string
		description string
		size        int
	}{
		{"Weekly Sync", "Cross-team weekly status meeting", 6},
		{"Architecture Review", "Design reviewers across engineering", 5},
		{"Launch Squad", "Release coordination", 8},
	}
	groups := make([]Group, 0, len(specs))
	for i, spec := range specs {
		size := min(spec.size, len(employees))
		perm := rng.Perm(len(employees))[:size]
		members := make([]string, 0, size)
		for _, idx := range perm {
			members = append(members, employees[idx].ID)
		}
		groups = append(groups, Group{
			ID:          fmt.Sprintf("group_%02d", i+1),
			Name:        spec.name,
			Description: spec.description,
			Members:     members,
		})
	}
	return groups
}
