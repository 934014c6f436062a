package users

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Runs against the redis at EION_USERS_TEST_REDIS_ADDR (default localhost:6379), skipping when unreachable.
func TestRedisStoreContract(t *testing.T) {
	addr := os.Getenv("EION_USERS_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	t.Cleanup(func() { client.Close() })

	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available, skipping integration test: %v", err)
		return
	}

	runStoreContract(t, func(t *testing.T) UserStore {
		store := NewRedisStore(client, "eion:users:test:"+uuid.NewString())
		t.Cleanup(func() { _ = store.Reset(context.Background()) })
		return store
	})
}
