package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/vrsandeep/tvguide/internal/db"
)

// SetupTestDB creates a SQLite database in a temporary directory and
// applies all migrations. It returns the database connection, ready for
// use in tests.
//
// A file database is used instead of ":memory:" so that every pooled
// connection sees the same schema.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.InitDB(filepath.Join(t.TempDir(), "tvguide_test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// Attach a cleanup function to automatically close the DB when the test completes.
	t.Cleanup(func() {
		database.Close()
	})

	if err := db.RunMigrations(database); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	return database
}
