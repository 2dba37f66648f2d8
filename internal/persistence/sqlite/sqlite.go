// Package sqlite stores reservation snapshots and location preferences in a
// SQLite database through the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const timeLayout = time.RFC3339Nano

// schemaMigration is one versioned step of the schema.
type schemaMigration struct {
	Version     string
	Description string
	Statements  []string
}

var migrations = []schemaMigration{
	{
		Version:     "001",
		Description: "reservations",
		Statements: []string{
			`CREATE TABLE reservations (
				id TEXT PRIMARY KEY,
				room_id TEXT NOT NULL,
				date TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT NOT NULL,
				title TEXT NOT NULL DEFAULT '',
				organizer_id TEXT NOT NULL DEFAULT '',
				recurrence_type TEXT NOT NULL DEFAULT 'none',
				recurrence_group_id TEXT NOT NULL DEFAULT '',
				created_by TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX idx_reservations_date ON reservations (date, start_time)`,
			`CREATE TABLE reservation_attendees (
				reservation_id TEXT NOT NULL REFERENCES reservations (id) ON DELETE CASCADE,
				employee_id TEXT NOT NULL,
				role TEXT NOT NULL CHECK (role IN ('required', 'optional')),
				position INTEGER NOT NULL,
				PRIMARY KEY (reservation_id, employee_id)
			)`,
		},
	},
	{
		Version:     "002",
		Description: "location preferences",
		Statements: []string{
			`CREATE TABLE preferences (
				employee_id TEXT PRIMARY KEY,
				building_id TEXT NOT NULL DEFAULT '',
				floor_id TEXT NOT NULL DEFAULT '',
				updated_at TEXT NOT NULL
			)`,
		},
	},
}

// Store implements persistence.ReservationStore and persistence.PreferenceStore.
type Store struct {
	pool   *ConnectionPool
	mapper ErrorMapper
	now    func() time.Time
}

// Open connects to the database described by config. Call Migrate before use.
func Open(ctx context.Context, config Config) (*Store, error) {
	pool, err := NewConnectionPool(ctx, config)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, now: time.Now}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Migrate applies every schema step that has not been recorded yet.
func (s *Store) Migrate(ctx context.Context) error {
	db := s.pool.DB()
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("sqlite: create schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		applied, err := s.isApplied(ctx, m.Version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}
		err = s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			for i, stmt := range m.Statements {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("sqlite: migration %s statement %d: %w", m.Version, i+1, err)
				}
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)`,
				m.Version, m.Description, s.now().UTC().Format(timeLayout))
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// AppliedVersions lists recorded schema versions in order.
func (s *Store) AppliedVersions(ctx context.Context) ([]string, error) {
	rows, err := s.pool.DB().QueryContext(ctx, `SELECT version FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list applied versions: %w", err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func (s *Store) isApplied(ctx context.Context, version string) (bool, error) {
	var exists int
	err := s.pool.DB().QueryRowContext(ctx, `SELECT 1 FROM schema_migrations WHERE version = ? LIMIT 1`, version).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: check migration %s: %w", version, err)
	}
	return true, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse timestamp %q: %w", value, err)
	}
	return t, nil
}
