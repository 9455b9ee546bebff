package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/emaximovel/agenda/internal/persistence"
	"github.com/emaximovel/agenda/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// storage instance for integration-style persistence tests.
type SQLiteHarness struct {
	Appointments persistence.AppointmentRepository
	Users        persistence.UserRepository
	Sessions     persistence.SessionRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// also registers a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	path := filepath.Join(dir, "agenda.db")

	storage, err := sqlite.Open("file:" + path + "?_pragma=foreign_keys(1)")
	if err != nil {
		tb.Fatalf("failed to open sqlite storage: %v", err)
	}
	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate sqlite storage: %v", err)
	}

	harness := &SQLiteHarness{
		Appointments: storage,
		Users:        storage,
		Sessions:     storage,
		cleanup: func() {
			_ = storage.Close()
		},
	}
	tb.Cleanup(harness.Close)
	return harness
}
