package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenSQLiteFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "users.db")

	db, err := OpenSQLite(dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "database file was not created")

	var fkEnabled int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled))
	assert.Equal(t, 1, fkEnabled)
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	_, err := OpenSQLite("")
	assert.Error(t, err)
}

func TestOpenPostgresRequiresURL(t *testing.T) {
	_, err := OpenPostgres("", 0)
	assert.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db))

	for _, table := range []string{"users", "user_events"} {
		var name string
		err := db.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, "table %s missing", table)
	}

	var index string
	err = db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_users_email'").Scan(&index)
	require.NoError(t, err)
}

type stubChecker struct {
	name     string
	critical bool
	err      error
}

func (s stubChecker) HealthCheck(context.Context) error { return s.err }
func (s stubChecker) IsCritical() bool                  { return s.critical }
func (s stubChecker) Name() string                      { return s.name }

func TestHealthManager(t *testing.T) {
	ctx := context.Background()

	t.Run("NonCriticalFailureIsTolerated", func(t *testing.T) {
		m := NewHealthManager(zap.NewNop())
		m.AddChecker(stubChecker{name: "db", critical: true})
		m.AddChecker(stubChecker{name: "cache", critical: false, err: errors.New("down")})

		assert.NoError(t, m.StartupHealthCheck(ctx))

		results := m.RuntimeHealthCheck(ctx)
		assert.NoError(t, results["db"])
		assert.EqualError(t, results["cache"], "down")
	})

	t.Run("CriticalFailureFailsStartup", func(t *testing.T) {
		m := NewHealthManager(nil)
		m.AddChecker(stubChecker{name: "db", critical: true, err: errors.New("refused")})

		err := m.StartupHealthCheck(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db: refused")
	})

	t.Run("DatabaseChecker", func(t *testing.T) {
		db, err := OpenSQLite(":memory:")
		require.NoError(t, err)
		defer db.Close()

		checker := NewDatabaseHealthChecker(db)
		assert.NoError(t, checker.HealthCheck(ctx))
		assert.True(t, checker.IsCritical())
		assert.Equal(t, "database:sqlite", checker.Name())
	})
}

// Runs against EION_USERS_TEST_POSTGRES_DSN, skipping when unset or unreachable.
func TestPostgresMigrate(t *testing.T) {
	dsn := os.Getenv("EION_USERS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("EION_USERS_TEST_POSTGRES_DSN not set, skipping integration test")
	}

	db, err := OpenPostgres(dsn, 2)
	if err != nil {
		t.Skipf("Postgres not available, skipping integration test: %v", err)
		return
	}
	defer db.Close()

	require.NoError(t, Migrate(context.Background(), db))
	assert.Equal(t, "database:postgres", NewDatabaseHealthChecker(db).Name())
}
