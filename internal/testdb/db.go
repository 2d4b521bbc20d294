package testdb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/phrazzld/scry-bootstrap/internal/platform/logger"
	"github.com/phrazzld/scry-bootstrap/internal/platform/migrations"
	"github.com/phrazzld/scry-bootstrap/internal/platform/postgres"
	"github.com/phrazzld/scry-bootstrap/internal/platform/sqlite"
	"github.com/phrazzld/scry-bootstrap/internal/redact"
)

// EnvDatabaseURL names the variable holding the PostgreSQL test database URL.
const EnvDatabaseURL = "BOOTSTRAP_TEST_DATABASE_URL"

// DatabaseURL returns the PostgreSQL test database URL, or "" if unset.
func DatabaseURL() string {
	return os.Getenv(EnvDatabaseURL)
}

// OpenPostgres connects to the PostgreSQL test database and applies
// migrations. The test is skipped when no database is configured.
func OpenPostgres(t *testing.T) *sql.DB {
	t.Helper()

	url := DatabaseURL()
	if url == "" {
		t.Skip(EnvDatabaseURL + " not set - skipping PostgreSQL test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := postgres.Open(ctx, url)
	if err != nil {
		// connection errors can echo the URL back
		t.Fatalf("failed to connect to test database: %s", redact.Error(err))
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := migrations.Up(ctx, db, migrations.DialectPostgres, logger.Discard()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// OpenSQLite creates a migrated SQLite database under t.TempDir.
func OpenSQLite(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := migrations.Up(context.Background(), db, migrations.DialectSQLite, logger.Discard()); err != nil {
		t.Fatalf("failed to migrate sqlite database: %v", err)
	}
	return db
}

// WithTx runs fn inside a transaction that is always rolled back.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}

	defer func() {
		if r := recover(); r != nil {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				t.Logf("failed to roll back transaction after panic: %v", err)
			}
			panic(r)
		}
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("failed to roll back transaction: %v", err)
		}
	}()

	fn(t, tx)
}
