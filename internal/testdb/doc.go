// Package testdb provides helpers for tests that need a real PostgreSQL
// database.
//
// Each test runs in its own transaction, which is rolled back when the test
// completes, so tests can run in parallel against the same schema without
// cleaning up after themselves.
//
//	func TestSomething(t *testing.T) {
//	    db := testdb.Open(t) // skips when no database is configured
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        users := postgres.NewPostgresUserStore(tx, nil)
//	        ...
//	    })
//	}
//
// The connection string is read from TASKTRACK_TEST_DATABASE_URL, falling
// back to DATABASE_URL. The embedded migrations are applied once per test
// binary.
package testdb
