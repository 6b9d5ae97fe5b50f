package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marcelsud/commit-webhooks/idempotency"
	"github.com/redis/go-redis/v9"
)

/* Redis implementation of idempotency.Ledger
 * One string key per delivery: delivery:{provider}:{delivery_id}
 * The value is "pending" while claimed and "applied" afterwards
 */

const (
	keyPrefix    = "delivery"
	valuePending = "pending"
	valueApplied = "applied"
)

// KeyPattern matches every ledger key, for SCAN
const KeyPattern = keyPrefix + ":*"

// abandonScript deletes the key only while it is still a pending claim
var abandonScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

type Ledger struct {
	client     *redis.Client
	pendingTTL time.Duration
	appliedTTL time.Duration
}

func NewLedger(client *redis.Client, pendingTTL, appliedTTL time.Duration) *Ledger {
	return &Ledger{
		client:     client,
		pendingTTL: pendingTTL,
		appliedTTL: appliedTTL,
	}
}

func key(k string) string {
	return fmt.Sprintf("%s:%s", keyPrefix, k)
}

func (l *Ledger) Begin(ctx context.Context, k string) (idempotency.State, error) {
	// a claim can expire between SETNX and GET; one retry covers it
	for attempt := 0; attempt < 2; attempt++ {
		claimed, err := l.client.SetNX(ctx, key(k), valuePending, l.pendingTTL).Result()
		if err != nil {
			return 0, fmt.Errorf("claiming delivery: %w", err)
		}
		if claimed {
			return idempotency.Claimed, nil
		}

		value, err := l.client.Get(ctx, key(k)).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("reading delivery state: %w", err)
		}
		if value == valueApplied {
			return idempotency.Applied, nil
		}
		return idempotency.InFlight, nil
	}
	return idempotency.InFlight, nil
}

func (l *Ledger) Complete(ctx context.Context, k string) error {
	if err := l.client.Set(ctx, key(k), valueApplied, l.appliedTTL).Err(); err != nil {
		return fmt.Errorf("marking delivery applied: %w", err)
	}
	return nil
}

func (l *Ledger) Abandon(ctx context.Context, k string) error {
	if err := abandonScript.Run(ctx, l.client, []string{key(k)}, valuePending).Err(); err != nil {
		return fmt.Errorf("releasing delivery claim: %w", err)
	}
	return nil
}
