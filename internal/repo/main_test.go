package repo_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/pressly/goose/v3"

	"github.com/pkordes/figure-timeline/migrations"
	"github.com/pkordes/figure-timeline/testutil"
)

// TestMain runs before any test in the repo_test package.
// It applies all pending Postgres migrations to the test database so
// individual tests never need to think about schema state. SQLite tests
// migrate their own throwaway database and do not depend on this.
func TestMain(m *testing.M) {
	if os.Getenv("TEST_DATABASE_URL") == "" {
		// No test DB configured: Postgres tests skip, SQLite tests still run.
		os.Exit(m.Run())
	}

	// goose needs database/sql, not a pgx pool. TestMain has no *testing.T,
	// hence MustOpenSQLDB rather than testutil.NewSQLDB.
	db := testutil.MustOpenSQLDB(os.Getenv("TEST_DATABASE_URL"))

	if _, err := migrations.Up(context.Background(), goose.DialectPostgres, db); err != nil {
		db.Close()
		log.Fatalf("TestMain: %v", err)
	}
	db.Close()

	os.Exit(m.Run())
}
