package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/downtime-scheduler/internal/persistence/sqlite"
)

// NewSQLiteStorage opens a migrated SQLite storage in a temporary directory.
// The storage is closed when the test finishes.
func NewSQLiteStorage(tb testing.TB) *sqlite.Storage {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "downtime.db")
	storage, err := sqlite.Open(path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	tb.Cleanup(func() { _ = storage.Close() })
	return storage
}

// SeedSchedules stores the fixtures and returns them with their assigned
// identifiers.
func SeedSchedules(tb testing.TB, storage *sqlite.Storage, fixtures ...ScheduleFixture) []ScheduleFixture {
	tb.Helper()

	seeded := make([]ScheduleFixture, 0, len(fixtures))
	for _, fixture := range fixtures {
		created, err := storage.CreateSchedule(context.Background(), fixture.Persistence())
		if err != nil {
			tb.Fatalf("failed to seed schedule %q: %v", fixture.Name, err)
		}
		fixture.ID = created.ID
		seeded = append(seeded, fixture)
	}
	return seeded
}
