package testfixtures

import (
	"path/filepath"
	"testing"

	"github.com/arnavshah/walk-scheduler/pkg/database"
	"gorm.io/gorm"
)

// OpenDB returns a migrated sqlite database stored in a temporary file that
// is closed when the test finishes.
func OpenDB(tb testing.TB) *gorm.DB {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "walks.db")
	db, err := database.OpenSQLite(path+"?_busy_timeout=5000", false)
	if err != nil {
		tb.Fatalf("failed to open database: %v", err)
	}
	tb.Cleanup(func() { _ = database.Close(db) })
	return db
}
