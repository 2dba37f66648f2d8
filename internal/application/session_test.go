package application

import (
	"slices"
	"testing"
)

func TestAttendeeSetKeepsOneRolePerEmployee(t *testing.T) {
	t.Parallel()

	var set AttendeeSet
	if !set.Add("bob", RoleRequired) {
		t.Fatal("expected first add to change the set")
	}
	if set.Add("bob", RoleRequired) {
		t.Fatal("expected repeated add to be a no-op")
	}
	if !set.Add("bob", RoleOptional) {
		t.Fatal("expected add in another role to move bob")
	}
	if got := set.Role("bob"); got != RoleOptional {
		t.Fatalf("expected bob optional, got %q", got)
	}
	if len(set.Required()) != 0 {
		t.Fatalf("expected bob to leave required, got %v", set.Required())
	}

	set.Add("alice", RoleOrganizer)
	set.Add("carol", RoleOrganizer)
	if set.Organizer() != "carol" || set.Role("alice") != RoleNone {
		t.Fatalf("expected carol to replace alice as organizer, got %q", set.Organizer())
	}
	if set.Len() != 2 {
		t.Fatalf("expected two attendees, got %d", set.Len())
	}
	if set.Add("", RoleRequired) || set.Add("dave", RoleNone) {
		t.Fatal("expected blank id or role to be ignored")
	}
}

func TestAttendeeSetToggle(t *testing.T) {
	t.Parallel()

	var set AttendeeSet
	if !set.Toggle("bob", RoleRequired) {
		t.Fatal("expected toggle to add bob")
	}
	if set.Toggle("bob", RoleRequired) {
		t.Fatal("expected second toggle to remove bob")
	}
	if set.Role("bob") != RoleNone {
		t.Fatalf("expected bob gone, got %q", set.Role("bob"))
	}

	set.Add("bob", RoleOptional)
	if !set.Toggle("bob", RoleRequired) || set.Role("bob") != RoleRequired {
		t.Fatalf("expected toggle in another role to move bob, got %q", set.Role("bob"))
	}
}

func TestAttendeeSetRankingRequired(t *testing.T) {
	t.Parallel()

	var set AttendeeSet
	set.Add("bob", RoleRequired)
	set.Add("erin", RoleOptional)
	set.Add("alice", RoleOrganizer)

	if got := set.RankingRequired(); !slices.Equal(got, []string{"alice", "bob"}) {
		t.Fatalf("expected organizer first, got %v", got)
	}

	required := set.Required()
	required[0] = "mutated"
	if set.Required()[0] != "bob" {
		t.Fatal("expected Required to return a copy")
	}
}

func TestSessionEntityCoverage(t *testing.T) {
	t.Parallel()

	sess := newSession("alice", "2024-03-12")
	sess.attendees.Add("alice", RoleOrganizer)
	sess.markDirect("alice")

	sess.addEntity(SelectedEntity{Kind: EntityTeam, ID: "platform", MemberIDs: []string{"alice", "bob", "carol"}, AttendeeRole: RoleRequired})
	sess.addEntity(SelectedEntity{Kind: EntityGroup, ID: "launch", MemberIDs: []string{"bob", "dave"}, AttendeeRole: RoleOptional})

	if sess.attendees.Role("alice") != RoleOrganizer {
		t.Fatal("expected organizer to keep the role when a team is added")
	}
	if sess.attendees.Role("bob") != RoleRequired || sess.attendees.Role("dave") != RoleOptional {
		t.Fatalf("unexpected roles bob=%q dave=%q", sess.attendees.Role("bob"), sess.attendees.Role("dave"))
	}

	again := sess.addEntity(SelectedEntity{Kind: EntityTeam, ID: "platform", MemberIDs: []string{"frank"}})
	if len(sess.entities) != 2 || slices.Contains(again.MemberIDs, "frank") {
		t.Fatal("expected duplicate entity to return the existing one")
	}

	if !sess.removeEntity(EntityTeam, "platform") {
		t.Fatal("expected team removal to succeed")
	}
	if sess.attendees.Role("carol") != RoleNone {
		t.Fatal("expected carol removed with the team")
	}
	if sess.attendees.Role("bob") != RoleRequired {
		t.Fatal("expected bob kept through the group")
	}
	if sess.attendees.Role("alice") != RoleOrganizer {
		t.Fatal("expected organizer kept")
	}
	if sess.removeEntity(EntityTeam, "platform") {
		t.Fatal("expected second removal to report false")
	}

	if !sess.removeAttendee("dave") {
		t.Fatal("expected dave to be removed")
	}
	if got := sess.entities[0].MemberIDs; !slices.Equal(got, []string{"bob"}) || sess.entities[0].MemberCount != 1 {
		t.Fatalf("expected dave stripped from the group, got %v", got)
	}
}

func TestSessionSnapshotSelection(t *testing.T) {
	t.Parallel()

	sess := newSession("alice", "2024-03-12")
	state := sess.snapshot()
	if state.Selection != nil || state.Recurrence != "none" {
		t.Fatalf("unexpected empty snapshot: %+v", state)
	}
	if state.Entities == nil {
		t.Fatal("expected non-nil entities for JSON output")
	}
}
