package testsupport

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// MemoryDSN returns a DSN for a private shared-cache in-memory sqlite
// database with foreign keys enabled.
func MemoryDSN() string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", uuid.NewString())
}

// NewTestDB opens an empty in-memory sqlite database wrapped in bun. The
// database is closed when the test ends. A single connection is kept so
// every query sees the same memory database.
func NewTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open("sqlite3", MemoryDSN())
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close test database: %v", err)
		}
	})

	if err := db.Ping(); err != nil {
		t.Fatalf("failed to ping sqlite database: %v", err)
	}

	return db
}
