package testutil

import (
	"database/sql"
	"testing"

	"channels-go/internal/catalog"
	"channels-go/internal/database"
)

// NewTestDatabase creates a new in-memory SQLite database with schema applied.
// The database is automatically closed when the test completes.
func NewTestDatabase(t *testing.T) *database.SQLiteDatabase {
	t.Helper()
	return NewTestDatabaseWith(t, nil, nil)
}

// NewTestDatabaseWith is NewTestDatabase with an injected clock and tree id
// generator. nil selects the real implementation.
func NewTestDatabaseWith(t *testing.T, clock catalog.Clock, idgen catalog.IDGenerator) *database.SQLiteDatabase {
	t.Helper()
	db, _ := newTestDatabase(t, clock, idgen)
	return db
}

// NewTestDatabaseConn is NewTestDatabase that also returns the underlying
// connection, for tests that install triggers or inspect rows directly.
func NewTestDatabaseConn(t *testing.T) (*database.SQLiteDatabase, *sql.DB) {
	t.Helper()
	return newTestDatabase(t, nil, nil)
}

func newTestDatabase(t *testing.T, clock catalog.Clock, idgen catalog.IDGenerator) (*database.SQLiteDatabase, *sql.DB) {
	t.Helper()

	sqlDB, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if _, err := sqlDB.Exec(database.Schema); err != nil {
		sqlDB.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}

	db := database.NewSQLiteDatabaseFromDB(sqlDB, clock, idgen)

	t.Cleanup(func() {
		db.Close()
	})

	return db, sqlDB
}
