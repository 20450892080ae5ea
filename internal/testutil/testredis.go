package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"chess-arena/internal/config"
)

// OpenTestRedis returns a client against the database named by
// TEST_REDIS_URL, flushed before and after the test. Tests that need a
// live backend skip when the variable is unset or the server is down.
func OpenTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	cfg, err := config.LoadTest()
	if err != nil {
		t.Skipf("skip redis test: %v", err)
	}
	opts, err := redis.ParseURL(cfg.TestRedisURL)
	if err != nil {
		t.Fatalf("parse TEST_REDIS_URL: %v", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("skip redis test: %v", err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		_ = client.Close()
		t.Fatalf("flush test db: %v", err)
	}
	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return client
}
