package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/room-finder/internal/persistence"
	"github.com/example/room-finder/internal/persistence/memory"
	"github.com/example/room-finder/internal/persistence/sqlite"
)

// StorageHarness exposes both persistence stores of one backend.
type StorageHarness struct {
	Name         string
	Reservations persistence.ReservationStore
	Preferences  persistence.PreferenceStore

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *StorageHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a StorageHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// will also register a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *StorageHarness {
	tb.Helper()

	dir := tb.TempDir()
	path := filepath.Join(dir, "roomfinder.db")

	ctx := context.Background()
	store, err := sqlite.Open(ctx, sqlite.DefaultConfig(path))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &StorageHarness{
		Name:         "sqlite",
		Reservations: store,
		Preferences:  store,
		cleanup: func() {
			_ = store.Close()
		},
	}
	tb.Cleanup(harness.Close)
	return harness
}

// NewMemoryHarness constructs a StorageHarness backed by process memory.
func NewMemoryHarness(tb testing.TB) *StorageHarness {
	tb.Helper()
	store := memory.New()
	harness := &StorageHarness{
		Name:         "memory",
		Reservations: store,
		Preferences:  store,
		cleanup: func() {
			_ = store.Close()
		},
	}
	tb.Cleanup(harness.Close)
	return harness
}

// StorageHarnesses returns one harness per backend so contract tests can run
// against each.
func StorageHarnesses(tb testing.TB) []*StorageHarness {
	tb.Helper()
	return []*StorageHarness{NewMemoryHarness(tb), NewSQLiteHarness(tb)}
}
