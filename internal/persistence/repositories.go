// Package persistence defines the stores that outlive a process: the committed
// reservation snapshot and each employee's last building and floor.
package persistence

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no record exists for the key.
	ErrNotFound = errors.New("persistence: not found")
	// ErrConstraintViolation is returned for records missing a key or
	// rejected by the backing store.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
)

// ReservationStore keeps the committed reservation list between runs.
// SaveReservations replaces the stored list with the given snapshot.
type ReservationStore interface {
	SaveReservations(ctx context.Context, reservations []Reservation) error
	LoadReservations(ctx context.Context) ([]Reservation, error)
}

// PreferenceStore keeps per-employee location preferences.
type PreferenceStore interface {
	SavePreference(ctx context.Context, pref Preference) error
	GetPreference(ctx context.Context, employeeID string) (Preference, error)
}
