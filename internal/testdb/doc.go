// Package testdb provides database helpers for state store tests.
//
// Each test runs in its own transaction, which is rolled back when the test
// completes, so tests can share one database without cleaning up after
// themselves:
//
//	func TestStore(t *testing.T) {
//	    db := testdb.OpenPostgres(t)
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        s := postgres.NewPostgresStateStore(tx, logger.Discard())
//	        ...
//	    })
//	}
//
// PostgreSQL tests are skipped unless BOOTSTRAP_TEST_DATABASE_URL is set.
// SQLite databases are created under t.TempDir and always available.
package testdb
