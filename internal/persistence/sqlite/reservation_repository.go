package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/room-finder/internal/persistence"
)

const (
	roleRequired = "required"
	roleOptional = "optional"
)

// SaveReservations replaces every stored reservation with the snapshot in a
// single transaction.
func (s *Store) SaveReservations(ctx context.Context, reservations []persistence.Reservation) error {
	for _, r := range reservations {
		if strings.TrimSpace(r.ID) == "" || r.RoomID == "" || r.Date == "" {
			return persistence.ErrConstraintViolation
		}
	}

	err := s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM reservation_attendees`); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM reservations`); err != nil {
			return err
		}

		insertReservation, err := tx.PrepareContext(ctx, `
			INSERT INTO reservations (
				id, room_id, date, start_time, end_time, title, organizer_id,
				recurrence_type, recurrence_group_id, created_by, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer insertReservation.Close()

		insertAttendee, err := tx.PrepareContext(ctx, `
			INSERT INTO reservation_attendees (reservation_id, employee_id, role, position)
			VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer insertAttendee.Close()

		for _, r := range reservations {
			if _, err := insertReservation.ExecContext(ctx,
				r.ID, r.RoomID, r.Date, r.StartTime, r.EndTime, r.Title, r.OrganizerID,
				r.RecurrenceType, r.RecurrenceGroupID, r.CreatedBy,
				formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
			); err != nil {
				return fmt.Errorf("insert reservation %s: %w", r.ID, err)
			}
			position := 0
			for _, group := range []struct {
				role string
				ids  []string
			}{{roleRequired, r.RequiredAttendeeIDs}, {roleOptional, r.OptionalAttendeeIDs}} {
				for _, id := range group.ids {
					if _, err := insertAttendee.ExecContext(ctx, r.ID, id, group.role, position); err != nil {
						return fmt.Errorf("insert attendee %s for %s: %w", id, r.ID, err)
					}
					position++
				}
			}
		}
		return nil
	})
	return s.mapper.MapError(err)
}

// LoadReservations returns the stored snapshot ordered by date, start time and id.
func (s *Store) LoadReservations(ctx context.Context) ([]persistence.Reservation, error) {
	db := s.pool.DB()
	rows, err := db.QueryContext(ctx, `
		SELECT id, room_id, date, start_time, end_time, title, organizer_id,
		       recurrence_type, recurrence_group_id, created_by, created_at, updated_at
		FROM reservations
		ORDER BY date, start_time, id`)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	var out []persistence.Reservation
	index := make(map[string]int)
	for rows.Next() {
		var r persistence.Reservation
		var createdAt, updatedAt string
		if err := rows.Scan(&r.ID, &r.RoomID, &r.Date, &r.StartTime, &r.EndTime, &r.Title, &r.OrganizerID,
			&r.RecurrenceType, &r.RecurrenceGroupID, &r.CreatedBy, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if r.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		index[r.ID] = len(out)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	attendees, err := db.QueryContext(ctx, `
		SELECT reservation_id, employee_id, role
		FROM reservation_attendees
		ORDER BY reservation_id, position`)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer attendees.Close()

	for attendees.Next() {
		var reservationID, employeeID, role string
		if err := attendees.Scan(&reservationID, &employeeID, &role); err != nil {
			return nil, err
		}
		i, ok := index[reservationID]
		if !ok {
			continue
		}
		switch role {
		case roleRequired:
			out[i].RequiredAttendeeIDs = append(out[i].RequiredAttendeeIDs, employeeID)
		case roleOptional:
			out[i].OptionalAttendeeIDs = append(out[i].OptionalAttendeeIDs, employeeID)
		}
	}
	return out, attendees.Err()
}
