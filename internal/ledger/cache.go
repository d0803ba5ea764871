package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// StockCache keeps recently computed stock levels in Redis. The ledger stays
// the source of truth; cached values are dropped whenever an entry is posted
// for the item, and a recompute from the full ledger reproduces them.
type StockCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewStockCache instantiates the cache helper. A nil client disables caching.
func NewStockCache(client *redis.Client, ttl time.Duration) *StockCache {
	return &StockCache{client: client, ttl: ttl}
}

func itemStockKey(itemID int64) string {
	return fmt.Sprintf("ledger:stock:item:%d", itemID)
}

func locationStockKey(itemID, locationID int64) string {
	return fmt.Sprintf("ledger:stock:item:%d:location:%d", itemID, locationID)
}

// Fetch loads a cached stock level or computes it with the loader. Concurrent
// fetches for the same key collapse into a single recomputation.
func (c *StockCache) Fetch(ctx context.Context, key string, loader func(context.Context) (decimal.Decimal, error)) (decimal.Decimal, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	raw, err := c.client.Get(ctx, key).Result()
	if err == nil {
		if value, parseErr := decimal.NewFromString(raw); parseErr == nil {
			return value, nil
		}
	} else if err != redis.Nil {
		return decimal.Zero, err
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		value, err := loader(ctx)
		if err != nil {
			return decimal.Zero, err
		}
		if err := c.client.Set(ctx, key, value.String(), c.ttl).Err(); err != nil {
			return decimal.Zero, err
		}
		return value, nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return result.(decimal.Decimal), nil
}

// Invalidate drops every cached level for the item: the item key itself plus
// its per-location keys. The scan pattern includes the ":location:" separator
// so item 1 never sweeps away keys for items 10, 12, 100.
func (c *StockCache) Invalidate(ctx context.Context, itemID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	keys := []string{itemStockKey(itemID)}
	pattern := itemStockKey(itemID) + ":location:*"
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return c.client.Del(ctx, keys...).Err()
}
