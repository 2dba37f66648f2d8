package scheduler

// ConflictType describes the type of conflict detected between reservations.
type ConflictType string

const (
	// ConflictTypeAttendee indicates an attendee is double-booked.
	ConflictTypeAttendee ConflictType = "attendee"
	// ConflictTypeRoom indicates a room is double-booked.
	ConflictTypeRoom ConflictType = "room"
)

// Conflict details an overlapping reservation that callers can present to users.
type Conflict struct {
	WithReservationID string       `json:"with_reservation_id"`
	Type              ConflictType `json:"type"`
	AttendeeID        string       `json:"attendee_id,omitempty"`
	RoomID            string       `json:"room_id,omitempty"`
	Date              string       `json:"date"`
}

// DetectConflicts identifies conflicts for the candidate against existing
// reservations on the same date. Reservations with the candidate's id are
// skipped, as are entries whose times cannot be resolved onto the grid.
func DetectConflicts(existing []Reservation, candidate Reservation) []Conflict {
	window, err := candidate.Range()
	if err != nil {
		return nil
	}

	attendees := make(map[string]struct{})
	for _, id := range candidate.Attendees() {
		attendees[id] = struct{}{}
	}

	var conflicts []Conflict
	for _, other := range existing {
		if other.ID == candidate.ID || other.Date != candidate.Date {
			continue
		}
		otherWindow, err := other.Range()
		if err != nil || !window.Overlaps(otherWindow) {
			continue
		}

		if other.RoomID != "" && other.RoomID == candidate.RoomID {
			conflicts = append(conflicts, Conflict{
				WithReservationID: other.ID,
				Type:              ConflictTypeRoom,
				RoomID:            other.RoomID,
				Date:              other.Date,
			})
		}

		seen := make(map[string]struct{})
		for _, id := range other.Attendees() {
			if _, ok := attendees[id]; !ok {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			conflicts = append(conflicts, Conflict{
				WithReservationID: other.ID,
				Type:              ConflictTypeAttendee,
				AttendeeID:        id,
				Date:              other.Date,
			})
		}
	}
	return conflicts
}
