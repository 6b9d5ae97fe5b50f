package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCollector implements Collector over the Redis delivery ledger
type RedisCollector struct {
	client  *redis.Client
	pattern string
}

// NewRedisCollector creates a collector scanning keys that match pattern (e.g. "delivery:*")
func NewRedisCollector(client *redis.Client, pattern string) *RedisCollector {
	return &RedisCollector{
		client:  client,
		pattern: pattern,
	}
}

// Collect gathers all metrics from Redis
func (c *RedisCollector) Collect(ctx context.Context) (Snapshot, error) {
	deliveries, err := c.GetDeliveryCounts(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("getting delivery counts: %w", err)
	}

	return Snapshot{
		Deliveries: deliveries,
		Timestamp:  time.Now(),
	}, nil
}

// GetDeliveryCounts counts ledger keys grouped by their value
func (c *RedisCollector) GetDeliveryCounts(ctx context.Context) (map[string]int64, error) {
	counts := map[string]int64{
		"pending": 0,
		"applied": 0,
	}

	var cursor uint64
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, c.pattern, 1000).Result()
		if err != nil {
			return nil, fmt.Errorf("scanning delivery keys: %w", err)
		}

		if len(keys) > 0 {
			// keys may expire between SCAN and MGET; those come back nil
			values, err := c.client.MGet(ctx, keys...).Result()
			if err != nil && err != redis.Nil {
				return nil, fmt.Errorf("reading delivery keys: %w", err)
			}
			for _, v := range values {
				state, ok := v.(string)
				if !ok {
					continue
				}
				if _, known := counts[state]; known {
					counts[state]++
				}
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return counts, nil
}
