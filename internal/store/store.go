package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/marcelsud/commit-webhooks/billing"
	billingmemory "github.com/marcelsud/commit-webhooks/billing/memory"
	billingpostgres "github.com/marcelsud/commit-webhooks/billing/postgres"
	billingredis "github.com/marcelsud/commit-webhooks/billing/redis"
	"github.com/marcelsud/commit-webhooks/config"
	"github.com/marcelsud/commit-webhooks/idempotency"
	ledgermemory "github.com/marcelsud/commit-webhooks/idempotency/memory"
	ledgerredis "github.com/marcelsud/commit-webhooks/idempotency/redis"
	"github.com/marcelsud/commit-webhooks/metrics"
	"github.com/marcelsud/commit-webhooks/user"
	usermemory "github.com/marcelsud/commit-webhooks/user/memory"
	userpostgres "github.com/marcelsud/commit-webhooks/user/postgres"
	userredis "github.com/marcelsud/commit-webhooks/user/redis"
	"github.com/redis/go-redis/v9"
)

/* Stores is everything the dispatcher persists to, for one STORE_DRIVER.
 * Repositories of the same driver share one connection, which Close releases once.
 */
type Stores struct {
	Users     user.Repository
	Billing   billing.Repository
	Ledger    idempotency.Ledger
	Collector metrics.Collector // nil unless the ledger can be scanned

	close func() error
}

// Open connects to the store selected by cfg.StoreDriver
func Open(ctx context.Context, cfg *config.Config) (*Stores, error) {
	pendingTTL, appliedTTL := cfg.IdempotencyPendingTTL(), cfg.IdempotencyTTL()

	switch cfg.StoreDriver {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return FromRedis(client, pendingTTL, appliedTTL), nil

	case "postgres":
		db, err := userpostgres.Open(cfg.PostgresURL, 25, 5, 5)
		if err != nil {
			return nil, err
		}
		return FromPostgres(db, ledgermemory.NewLedger(pendingTTL, appliedTTL)), nil

	default:
		return &Stores{
			Users:   usermemory.NewRepository(),
			Billing: billingmemory.NewRepository(),
			Ledger:  ledgermemory.NewLedger(pendingTTL, appliedTTL),
			close:   func() error { return nil },
		}, nil
	}
}

// FromRedis keeps users, references and the ledger in one Redis database
func FromRedis(client *redis.Client, pendingTTL, appliedTTL time.Duration) *Stores {
	return &Stores{
		Users:     userredis.NewRepositoryWithClient(client),
		Billing:   billingredis.NewRepositoryWithClient(client),
		Ledger:    ledgerredis.NewLedger(client, pendingTTL, appliedTTL),
		Collector: metrics.NewRedisCollector(client, ledgerredis.KeyPattern),
		close:     client.Close,
	}
}

// FromPostgres keeps users and references in Postgres. The ledger is supplied
// by the caller; redeliveries it misses still hit the conditional writes.
func FromPostgres(db *sql.DB, ledger idempotency.Ledger) *Stores {
	return &Stores{
		Users:   userpostgres.NewRepositoryWithDB(db),
		Billing: billingpostgres.NewRepositoryWithDB(db),
		Ledger:  ledger,
		close:   db.Close,
	}
}

// Migrate creates the relational schema. Other drivers need none.
func (s *Stores) Migrate(ctx context.Context) error {
	type migrator interface {
		CreateSchema(ctx context.Context) error
	}
	for _, repo := range []any{s.Users, s.Billing} {
		if m, ok := repo.(migrator); ok {
			if err := m.CreateSchema(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close releases the shared connection
func (s *Stores) Close() error {
	return s.close()
}
