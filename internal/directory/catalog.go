// Package directory holds the read-only catalog of buildings, floors, rooms,
// employees, teams and address-book groups.
package directory

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when an id or name has no matching entity.
	ErrNotFound = errors.New("directory: not found")
	// ErrInvalidCatalog is returned when catalog data has duplicate ids or dangling references.
	ErrInvalidCatalog = errors.New("directory: invalid catalog")
)

// Building is a physical site.
type Building struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Floor belongs to exactly one building.
type Floor struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	BuildingID string `json:"building_id"`
}

// Room is a bookable meeting room.
type Room struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Capacity   int      `json:"capacity"`
	FloorID    string   `json:"floor_id"`
	BuildingID string   `json:"building_id"`
	Amenities  []string `json:"amenities,omitempty"`
}

// HasAmenity reports whether the room lists the amenity.
func (r Room) HasAmenity(name string) bool {
	for _, a := range r.Amenities {
		if strings.EqualFold(a, name) {
			return true
		}
	}
	return false
}

// Employee is a person that can attend or organize meetings.
type Employee struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	TeamID     string `json:"team_id"`
	Position   string `json:"position"`
	Email      string `json:"email"`
}

// Team partitions employees by TeamID.
type Team struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MemberCount int    `json:"member_count"`
}

// Group is an address-book list that can span teams.
type Group struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Members     []string `json:"members"`
}

// Data is the raw input used to build a Catalog.
type Data struct {
	Buildings []Building
	Floors    []Floor
	Rooms     []Room
	Employees []Employee
	Teams     []Team
	Groups    []Group
}

// Catalog is an immutable, validated view over Data.
type Catalog struct {
	buildings []Building
	floors    []Floor
	rooms     []Room
	employees []Employee
	teams     []Team
	groups    []Group

	buildingByID map[string]int
	floorByID    map[string]int
	roomByID     map[string]int
	employeeByID map[string]int
	teamByID     map[string]int
	groupByID    map[string]int

	teamMembers map[string][]string
}

// New validates data and builds the lookup indexes.
func New(data Data) (*Catalog, error) {
	c := &Catalog{
		buildings:    cloneSlice(data.Buildings),
		floors:       cloneSlice(data.Floors),
		rooms:        make([]Room, 0, len(data.Rooms)),
		employees:    cloneSlice(data.Employees),
		teams:        cloneSlice(data.Teams),
		groups:       make([]Group, 0, len(data.Groups)),
		buildingByID: make(map[string]int, len(data.Buildings)),
		floorByID:    make(map[string]int, len(data.Floors)),
		roomByID:     make(map[string]int, len(data.Rooms)),
		employeeByID: make(map[string]int, len(data.Employees)),
		teamByID:     make(map[string]int, len(data.Teams)),
		groupByID:    make(map[string]int, len(data.Groups)),
		teamMembers:  make(map[string][]string, len(data.Teams)),
	}
	for _, room := range data.Rooms {
		room.Amenities = dedupe(room.Amenities)
		c.rooms = append(c.rooms, room)
	}
	for _, group := range data.Groups {
		group.Members = dedupe(group.Members)
		c.groups = append(c.groups, group)
	}

	var problems []string
	index := func(kind, id string, i int, into map[string]int) {
		if strings.TrimSpace(id) == "" {
			problems = append(problems, fmt.Sprintf("%s at position %d has empty id", kind, i))
			return
		}
		if _, dup := into[id]; dup {
			problems = append(problems, fmt.Sprintf("duplicate %s id %q", kind, id))
			return
		}
		into[id] = i
	}

	for i, b := range c.buildings {
		index("building", b.ID, i, c.buildingByID)
	}
	for i, f := range c.floors {
		index("floor", f.ID, i, c.floorByID)
		if _, ok := c.buildingByID[f.BuildingID]; !ok {
			problems = append(problems, fmt.Sprintf("floor %q references unknown building %q", f.ID, f.BuildingID))
		}
	}
	for i, r := range c.rooms {
		index("room", r.ID, i, c.roomByID)
		fi, ok := c.floorByID[r.FloorID]
		if !ok {
			problems = append(problems, fmt.Sprintf("room %q references unknown floor %q", r.ID, r.FloorID))
			continue
		}
		if c.floors[fi].BuildingID != r.BuildingID {
			problems = append(problems, fmt.Sprintf("room %q building %q does not match floor %q", r.ID, r.BuildingID, r.FloorID))
		}
		if r.Capacity < 0 {
			problems = append(problems, fmt.Sprintf("room %q has negative capacity", r.ID))
		}
	}
	for i, t := range c.teams {
		index("team", t.ID, i, c.teamByID)
	}
	for i, e := range c.employees {
		index("employee", e.ID, i, c.employeeByID)
		if e.TeamID == "" {
			continue
		}
		if _, ok := c.teamByID[e.TeamID]; !ok {
			problems = append(problems, fmt.Sprintf("employee %q references unknown team %q", e.ID, e.TeamID))
			continue
		}
		c.teamMembers[e.TeamID] = append(c.teamMembers[e.TeamID], e.ID)
	}
	for i, g := range c.groups {
		index("group", g.ID, i, c.groupByID)
		for _, member := range g.Members {
			if _, ok := c.employeeByID[member]; !ok {
				problems = append(problems, fmt.Sprintf("group %q references unknown employee %q", g.ID, member))
			}
		}
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(problems, "; "))
	}

	for i := range c.teams {
		c.teams[i].MemberCount = len(c.teamMembers[c.teams[i].ID])
	}
	return c, nil
}

// Buildings returns every building in catalog order.
func (c *Catalog) Buildings() []Building { return cloneSlice(c.buildings) }

// Rooms returns every room in catalog order.
func (c *Catalog) Rooms() []Room { return cloneRooms(c.rooms) }

// Employees returns every employee in catalog order.
func (c *Catalog) Employees() []Employee { return cloneSlice(c.employees) }

// Teams returns every team in catalog order.
func (c *Catalog) Teams() []Team { return cloneSlice(c.teams) }

// Groups returns every address-book group in catalog order.
func (c *Catalog) Groups() []Group {
	out := make([]Group, len(c.groups))
	for i, g := range c.groups {
		g.Members = cloneSlice(g.Members)
		out[i] = g
	}
	return out
}

// Building looks up a building by id.
func (c *Catalog) Building(id string) (Building, error) {
	i, ok := c.buildingByID[id]
	if !ok {
		return Building{}, notFound("building", id)
	}
	return c.buildings[i], nil
}

// Floor looks up a floor by id.
func (c *Catalog) Floor(id string) (Floor, error) {
	i, ok := c.floorByID[id]
	if !ok {
		return Floor{}, notFound("floor", id)
	}
	return c.floors[i], nil
}

// Room looks up a room by id.
func (c *Catalog) Room(id string) (Room, error) {
	i, ok := c.roomByID[id]
	if !ok {
		return Room{}, notFound("room", id)
	}
	room := c.rooms[i]
	room.Amenities = cloneSlice(room.Amenities)
	return room, nil
}

// HasRoom reports whether the room id exists.
func (c *Catalog) HasRoom(id string) bool {
	_, ok := c.roomByID[id]
	return ok
}

// Employee looks up an employee by id.
func (c *Catalog) Employee(id string) (Employee, error) {
	i, ok := c.employeeByID[id]
	if !ok {
		return Employee{}, notFound("employee", id)
	}
	return c.employees[i], nil
}

// EmployeeIndex returns the stable catalog position of the employee.
func (c *Catalog) EmployeeIndex(id string) (int, bool) {
	i, ok := c.employeeByID[id]
	return i, ok
}

// MissingEmployeeIDs returns the ids that are not in the catalog, in input order.
func (c *Catalog) MissingEmployeeIDs(ids []string) []string {
	var missing []string
	for _, id := range ids {
		if _, ok := c.employeeByID[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// Team looks up a team by id.
func (c *Catalog) Team(id string) (Team, error) {
	i, ok := c.teamByID[id]
	if !ok {
		return Team{}, notFound("team", id)
	}
	return c.teams[i], nil
}

// Group looks up an address-book group by id.
func (c *Catalog) Group(id string) (Group, error) {
	i, ok := c.groupByID[id]
	if !ok {
		return Group{}, notFound("group", id)
	}
	g := c.groups[i]
	g.Members = cloneSlice(g.Members)
	return g, nil
}

// FloorsOf lists the floors of a building in catalog order.
func (c *Catalog) FloorsOf(buildingID string) []Floor {
	var out []Floor
	for _, f := range c.floors {
		if f.BuildingID == buildingID {
			out = append(out, f)
		}
	}
	return out
}

// RoomsOn lists the rooms on a floor in catalog order.
func (c *Catalog) RoomsOn(floorID string) []Room {
	var out []Room
	for _, r := range c.rooms {
		if r.FloorID == floorID {
			r.Amenities = cloneSlice(r.Amenities)
			out = append(out, r)
		}
	}
	return out
}

// TeamMembers lists the employee ids of a team in catalog order.
func (c *Catalog) TeamMembers(teamID string) ([]string, error) {
	if _, ok := c.teamByID[teamID]; !ok {
		return nil, notFound("team", teamID)
	}
	return cloneSlice(c.teamMembers[teamID]), nil
}

// GroupMembers lists the employee ids of an address-book group.
func (c *Catalog) GroupMembers(groupID string) ([]string, error) {
	g, err := c.Group(groupID)
	if err != nil {
		return nil, err
	}
	return g.Members, nil
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, kind, id)
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func cloneRooms(in []Room) []Room {
	out := make([]Room, len(in))
	for i, r := range in {
		r.Amenities = cloneSlice(r.Amenities)
		out[i] = r
	}
	return out
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
