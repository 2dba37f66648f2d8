// Package memory provides process-local implementations of the persistence
// stores. It backs the server when no SQLite DSN is configured.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/example/room-finder/internal/persistence"
)

// Storage keeps reservations and preferences in maps guarded by a mutex.
type Storage struct {
	mu           sync.RWMutex
	reservations map[string]persistence.Reservation
	preferences  map[string]persistence.Preference
}

// New returns an empty Storage.
func New() *Storage {
	return &Storage{
		reservations: make(map[string]persistence.Reservation),
		preferences:  make(map[string]persistence.Preference),
	}
}

// Close releases resources held by the storage. No-op for the in-memory implementation.
func (s *Storage) Close() error {
	return nil
}

// --- ReservationStore implementation ---

// SaveReservations replaces the stored snapshot.
func (s *Storage) SaveReservations(ctx context.Context, reservations []persistence.Reservation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	next := make(map[string]persistence.Reservation, len(reservations))
	for _, r := range reservations {
		if strings.TrimSpace(r.ID) == "" {
			return persistence.ErrConstraintViolation
		}
		next[r.ID] = cloneReservation(r)
	}

	s.mu.Lock()
	s.reservations = next
	s.mu.Unlock()
	return nil
}

// LoadReservations returns the snapshot ordered by date, start time and id.
func (s *Storage) LoadReservations(ctx context.Context) ([]persistence.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]persistence.Reservation, 0, len(s.reservations))
	for _, r := range s.reservations {
		out = append(out, cloneReservation(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// --- PreferenceStore implementation ---

// SavePreference upserts the employee's preference.
func (s *Storage) SavePreference(ctx context.Context, pref persistence.Preference) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(pref.EmployeeID) == "" {
		return persistence.ErrConstraintViolation
	}
	s.mu.Lock()
	s.preferences[pref.EmployeeID] = pref
	s.mu.Unlock()
	return nil
}

// GetPreference returns the employee's preference.
func (s *Storage) GetPreference(ctx context.Context, employeeID string) (persistence.Preference, error) {
	if err := ctx.Err(); err != nil {
		return persistence.Preference{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	pref, ok := s.preferences[employeeID]
	if !ok {
		return persistence.Preference{}, persistence.ErrNotFound
	}
	return pref, nil
}

func cloneReservation(r persistence.Reservation) persistence.Reservation {
	r.RequiredAttendeeIDs = slices.Clone(r.RequiredAttendeeIDs)
	r.OptionalAttendeeIDs = slices.Clone(r.OptionalAttendeeIDs)
	return r
}
