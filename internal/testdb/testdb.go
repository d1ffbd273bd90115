package testdb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/tasktrack-api/internal/config"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/platform/postgres"
	"github.com/stretchr/testify/require"
)

// Environment variables consulted for the test database, in order.
const (
	EnvTestDatabaseURL = "TASKTRACK_TEST_DATABASE_URL"
	EnvDatabaseURL     = "DATABASE_URL"
)

// TestTimeout bounds connection setup and migrations.
const TestTimeout = 30 * time.Second

var (
	migrateOnce sync.Once
	migrateErr  error
)

// DatabaseURL returns the configured test database URL, or "" when none is set.
func DatabaseURL() string {
	if url := os.Getenv(EnvTestDatabaseURL); url != "" {
		return url
	}
	return os.Getenv(EnvDatabaseURL)
}

// SkipIfUnavailable skips t when no test database is configured.
func SkipIfUnavailable(t *testing.T) {
	t.Helper()
	if DatabaseURL() == "" {
		t.Skipf("%s not set - skipping database test", EnvTestDatabaseURL)
	}
}

// Open connects to the test database, applies migrations and registers the
// connection to be closed when t completes.
func Open(t *testing.T) *sql.DB {
	t.Helper()
	SkipIfUnavailable(t)

	log, _ := logger.NewTestLogger(t)
	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	db, err := postgres.Open(ctx, config.DatabaseConfig{
		URL:          DatabaseURL(),
		MaxOpenConns: 10,
		MaxIdleConns: 2,
	}, log)
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close test database: %v", err)
		}
	})

	migrateOnce.Do(func() {
		migrateErr = postgres.Migrate(ctx, db, "up", log)
	})
	require.NoError(t, migrateErr, "failed to migrate test database")

	return db
}

// WithTx runs fn inside a transaction that is always rolled back.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err, "failed to begin transaction")

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("failed to roll back test transaction: %v", err)
		}
	}()

	fn(t, tx)
}
