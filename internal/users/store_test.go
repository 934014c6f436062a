package users

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/eion/eion-users/internal/storage"
)

func newSQLiteDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := storage.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, storage.Migrate(testContext(t), db))
	return db
}

func TestBunStoreContractSQLite(t *testing.T) {
	runStoreContract(t, func(t *testing.T) UserStore {
		return NewBunStore(newSQLiteDB(t))
	})
}

// Runs against EION_USERS_TEST_POSTGRES_DSN, skipping when unset or unreachable.
func TestBunStoreContractPostgres(t *testing.T) {
	dsn := os.Getenv("EION_USERS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("EION_USERS_TEST_POSTGRES_DSN not set, skipping integration test")
	}

	db, err := storage.OpenPostgres(dsn, 2)
	if err != nil {
		t.Skipf("Postgres not available, skipping integration test: %v", err)
		return
	}
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.Migrate(testContext(t), db))

	runStoreContract(t, func(t *testing.T) UserStore {
		store := NewBunStore(db)
		require.NoError(t, store.Reset(testContext(t)))
		return store
	})
}

func TestBunStoreMalformedIDIsAbsent(t *testing.T) {
	store := NewBunStore(newSQLiteDB(t))
	ctx := testContext(t)

	for _, id := range []string{"", "abc", "-1", "0"} {
		user, err := store.FindByID(ctx, id)
		require.NoError(t, err)
		require.Nil(t, user, "id %q", id)

		deleted, err := store.Delete(ctx, id)
		require.NoError(t, err)
		require.False(t, deleted, "id %q", id)
	}
}

// testContext stands in for testing.T.Context (Go 1.24+): the context is
// canceled when the test finishes.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
