//go:build integration

package testcontainer

import (
	"context"
	"strings"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	testcontainersredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

/* Test helpers for integration tests backed by real containers
 * Following the pattern from: https://eltonminetto.dev/post/2024-02-15-using-test-helpers/
 */

// RedisContainer holds the Redis testcontainer and connection details
type RedisContainer struct {
	Container *testcontainersredis.RedisContainer
	Addr      string
}

// SetupRedis starts a Redis container and registers its termination with t.Cleanup
func SetupRedis(t *testing.T, ctx context.Context) *RedisContainer {
	t.Helper()

	redisContainer, err := testcontainersredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "failed to start Redis container")

	t.Cleanup(func() {
		if err := redisContainer.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate Redis container: %v", err)
		}
	})

	addr, err := redisContainer.ConnectionString(ctx)
	require.NoError(t, err, "failed to get Redis connection string")

	return &RedisContainer{
		Container: redisContainer,
		Addr:      strings.TrimPrefix(addr, "redis://"),
	}
}

// Client returns a direct client for assertions, closed with t.Cleanup
func (rc *RedisContainer) Client(t *testing.T) *goredis.Client {
	t.Helper()
	client := goredis.NewClient(&goredis.Options{Addr: rc.Addr})
	t.Cleanup(func() { _ = client.Close() })
	return client
}
