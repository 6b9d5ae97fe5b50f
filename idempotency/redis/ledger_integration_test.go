//go:build integration

package redis_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/marcelsud/commit-webhooks/idempotency"
	"github.com/marcelsud/commit-webhooks/idempotency/redis"
	"github.com/marcelsud/commit-webhooks/internal/testcontainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_Integration(t *testing.T) {
	ctx := context.Background()
	rc := testcontainer.SetupRedis(t, ctx)
	client := rc.Client(t)
	ledger := redis.NewLedger(client, time.Minute, time.Hour)

	t.Run("only one concurrent claim wins", func(t *testing.T) {
		key := idempotency.Key("identity", "msg_race")
		states := make(chan idempotency.State, 10)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				state, err := ledger.Begin(ctx, key)
				assert.NoError(t, err)
				states <- state
			}()
		}
		wg.Wait()
		close(states)

		claimed := 0
		for s := range states {
			if s == idempotency.Claimed {
				claimed++
			}
		}
		assert.Equal(t, 1, claimed)
	})

	t.Run("complete sets the long ttl", func(t *testing.T) {
		key := idempotency.Key("identity", "msg_done")
		_, err := ledger.Begin(ctx, key)
		require.NoError(t, err)
		require.NoError(t, ledger.Complete(ctx, key))

		state, err := ledger.Begin(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, idempotency.Applied, state)

		ttl, err := client.TTL(ctx, "delivery:"+key).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, 30*time.Minute)

		require.NoError(t, ledger.Abandon(ctx, key))
		state, _ = ledger.Begin(ctx, key)
		assert.Equal(t, idempotency.Applied, state)
	})

	t.Run("abandon releases a pending claim", func(t *testing.T) {
		key := idempotency.Key("payment", "evt_1")
		_, err := ledger.Begin(ctx, key)
		require.NoError(t, err)
		require.NoError(t, ledger.Abandon(ctx, key))

		state, err := ledger.Begin(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, idempotency.Claimed, state)
	})
}
