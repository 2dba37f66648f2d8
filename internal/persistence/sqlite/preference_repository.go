package sqlite

import (
	"context"
	"strings"

	"github.com/example/room-finder/internal/persistence"
)

// SavePreference upserts the employee's last building and floor.
func (s *Store) SavePreference(ctx context.Context, pref persistence.Preference) error {
	if strings.TrimSpace(pref.EmployeeID) == "" {
		return persistence.ErrConstraintViolation
	}
	updated := pref.UpdatedAt
	if updated.IsZero() {
		updated = s.now()
	}
	_, err := s.pool.DB().ExecContext(ctx, `
		INSERT INTO preferences (employee_id, building_id, floor_id, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (employee_id) DO UPDATE SET
			building_id = excluded.building_id,
			floor_id = excluded.floor_id,
			updated_at = excluded.updated_at`,
		pref.EmployeeID, pref.BuildingID, pref.FloorID, formatTime(updated))
	return s.mapper.MapError(err)
}

// GetPreference returns the stored preference or persistence.ErrNotFound.
func (s *Store) GetPreference(ctx context.Context, employeeID string) (persistence.Preference, error) {
	var pref persistence.Preference
	var updated string
	err := s.pool.DB().QueryRowContext(ctx, `
		SELECT employee_id, building_id, floor_id, updated_at
		FROM preferences
		WHERE employee_id = ?`, employeeID).Scan(&pref.EmployeeID, &pref.BuildingID, &pref.FloorID, &updated)
	if err != nil {
		return persistence.Preference{}, s.mapper.MapError(err)
	}
	if pref.UpdatedAt, err = parseTime(updated); err != nil {
		return persistence.Preference{}, err
	}
	return pref, nil
}
