package directory

import "strings"

// Kind names an entity type that can be resolved by name.
type Kind string

const (
	KindBuilding Kind = "building"
	KindFloor    Kind = "floor"
	KindRoom     Kind = "room"
	KindEmployee Kind = "employee"
	KindTeam     Kind = "team"
	KindGroup    Kind = "group"
)

// ParseKind maps a free-form label onto a Kind.
func ParseKind(value string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindBuilding:
		return KindBuilding, true
	case KindFloor:
		return KindFloor, true
	case KindRoom:
		return KindRoom, true
	case KindEmployee, "person", "individual":
		return KindEmployee, true
	case KindTeam:
		return KindTeam, true
	case KindGroup:
		return KindGroup, true
	}
	return "", false
}

// Match is the outcome of a generic name resolution.
type Match struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

// matches is the single ambiguity policy for name lookup: case-insensitive
// containment in either direction. A blank query or blank name never matches.
func matches(name, query string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	q := strings.ToLower(strings.TrimSpace(query))
	if n == "" || q == "" {
		return false
	}
	return strings.Contains(n, q) || strings.Contains(q, n)
}

// resolve returns the first item in catalog order whose name matches the query.
func resolve[T any](items []T, name func(T) string, query string) (T, bool) {
	for _, item := range items {
		if matches(name(item), query) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// ResolveBuilding finds a building by fuzzy name.
func (c *Catalog) ResolveBuilding(query string) (Building, error) {
	b, ok := resolve(c.buildings, func(b Building) string { return b.Name }, query)
	if !ok {
		return Building{}, notFound("building", query)
	}
	return b, nil
}

// ResolveFloor finds a floor by fuzzy name. A non-empty buildingID scopes the
// search to that building's floors.
func (c *Catalog) ResolveFloor(buildingID, query string) (Floor, error) {
	candidates := c.floors
	if buildingID != "" {
		candidates = c.FloorsOf(buildingID)
	}
	f, ok := resolve(candidates, func(f Floor) string { return f.Name }, query)
	if !ok {
		return Floor{}, notFound("floor", query)
	}
	return f, nil
}

// ResolveRoom finds a room by fuzzy name.
func (c *Catalog) ResolveRoom(query string) (Room, error) {
	r, ok := resolve(c.rooms, func(r Room) string { return r.Name }, query)
	if !ok {
		return Room{}, notFound("room", query)
	}
	r.Amenities = cloneSlice(r.Amenities)
	return r, nil
}

// ResolveEmployee finds an employee by fuzzy name.
func (c *Catalog) ResolveEmployee(query string) (Employee, error) {
	e, ok := resolve(c.employees, func(e Employee) string { return e.Name }, query)
	if !ok {
		return Employee{}, notFound("employee", query)
	}
	return e, nil
}

// ResolveTeam finds a team by fuzzy name.
func (c *Catalog) ResolveTeam(query string) (Team, error) {
	t, ok := resolve(c.teams, func(t Team) string { return t.Name }, query)
	if !ok {
		return Team{}, notFound("team", query)
	}
	return t, nil
}

// ResolveGroup finds an address-book group by fuzzy name.
func (c *Catalog) ResolveGroup(query string) (Group, error) {
	g, ok := resolve(c.groups, func(g Group) string { return g.Name }, query)
	if !ok {
		return Group{}, notFound("group", query)
	}
	g.Members = cloneSlice(g.Members)
	return g, nil
}

// Resolve dispatches a name lookup by kind.
func (c *Catalog) Resolve(kind Kind, query string) (Match, error) {
	switch kind {
	case KindBuilding:
		b, err := c.ResolveBuilding(query)
		return Match{Kind: kind, ID: b.ID, Name: b.Name}, err
	case KindFloor:
		f, err := c.ResolveFloor("", query)
		return Match{Kind: kind, ID: f.ID, Name: f.Name}, err
	case KindRoom:
		r, err := c.ResolveRoom(query)
		return Match{Kind: kind, ID: r.ID, Name: r.Name}, err
	case KindEmployee:
		e, err := c.ResolveEmployee(query)
		return Match{Kind: kind, ID: e.ID, Name: e.Name}, err
	case KindTeam:
		t, err := c.ResolveTeam(query)
		return Match{Kind: kind, ID: t.ID, Name: t.Name}, err
	case KindGroup:
		g, err := c.ResolveGroup(query)
		return Match{Kind: kind, ID: g.ID, Name: g.Name}, err
	}
	return Match{}, notFound(string(kind), query)
}

// SearchEmployees returns employees whose name, department or position
// contains the query. A blank query returns every employee.
func (c *Catalog) SearchEmployees(query string) []Employee {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return c.Employees()
	}
	var out []Employee
	for _, e := range c.employees {
		if strings.Contains(strings.ToLower(e.Name), q) ||
			strings.Contains(strings.ToLower(e.Department), q) ||
			strings.Contains(strings.ToLower(e.Position), q) {
			out = append(out, e)
		}
	}
	return out
}
