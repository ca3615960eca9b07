// Package testing provides testing utilities and helpers for the mission-control project.
package testing

import (
	"fmt"
	"os"
	"testing"

	"github.com/aristath/mission-control/internal/database"
	"github.com/rs/zerolog"
)

// DashboardDB is the name of the dashboard database and its schema.
const DashboardDB = "dashboard"

// NewTestDB creates a temporary-file SQLite database for testing with automatic schema migration.
// Returns the database instance and a cleanup function that closes the connection.
// The cleanup function is idempotent and can be called multiple times safely.
//
// A file is used instead of :memory: because every pooled connection to :memory:
// would see its own empty database.
func NewTestDB(t *testing.T, name string) (*database.DB, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", fmt.Sprintf("test_%s_*.db", name))
	if err != nil {
		t.Fatalf("Failed to create temporary database file: %v", err)
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()

	db, err := database.New(database.Config{
		Path:    tmpPath,
		Profile: database.ProfileScratch,
		Name:    name,
	})
	if err != nil {
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	closed := false
	return db, func() {
		if closed {
			return
		}
		closed = true
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
		for _, suffix := range []string{"", "-wal", "-shm"} {
			_ = os.Remove(tmpPath + suffix)
		}
	}
}

// NewDashboardDB is NewTestDB for the dashboard schema with cleanup registered on t.
func NewDashboardDB(t *testing.T) *database.DB {
	t.Helper()
	db, cleanup := NewTestDB(t, DashboardDB)
	t.Cleanup(cleanup)
	return db
}

// NopLogger returns a disabled logger for tests.
func NopLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}
