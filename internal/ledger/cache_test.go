package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*StockCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStockCache(client, time.Minute), srv
}

func TestStockCacheFetchStoresAndReuses(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	calls := 0
	loader := func(context.Context) (decimal.Decimal, error) {
		calls++
		return decimal.NewFromInt(42), nil
	}

	value, err := cache.Fetch(ctx, itemStockKey(1), loader)
	require.NoError(t, err)
	require.True(t, value.Equal(decimal.NewFromInt(42)))
	require.Equal(t, 1, calls)

	value, err = cache.Fetch(ctx, itemStockKey(1), loader)
	require.NoError(t, err)
	require.True(t, value.Equal(decimal.NewFromInt(42)))
	require.Equal(t, 1, calls, "second fetch must hit the cache")
}

func TestStockCacheFetchLoaderError(t *testing.T) {
	cache, _ := newTestCache(t)

	boom := errors.New("ledger unavailable")
	_, err := cache.Fetch(context.Background(), itemStockKey(2), func(context.Context) (decimal.Decimal, error) {
		return decimal.Zero, boom
	})
	require.ErrorIs(t, err, boom)
}

func TestStockCacheInvalidateDropsItemAndLocationKeys(t *testing.T) {
	cache, srv := newTestCache(t)
	ctx := context.Background()

	load := func(v int64) func(context.Context) (decimal.Decimal, error) {
		return func(context.Context) (decimal.Decimal, error) {
			return decimal.NewFromInt(v), nil
		}
	}
	_, err := cache.Fetch(ctx, itemStockKey(1), load(10))
	require.NoError(t, err)
	_, err = cache.Fetch(ctx, locationStockKey(1, 7), load(4))
	require.NoError(t, err)
	_, err = cache.Fetch(ctx, itemStockKey(2), load(99))
	require.NoError(t, err)

	require.NoError(t, cache.Invalidate(ctx, 1))

	require.False(t, srv.Exists(itemStockKey(1)))
	require.False(t, srv.Exists(locationStockKey(1, 7)))
	require.True(t, srv.Exists(itemStockKey(2)), "other items keep their cache")
}

func TestStockCacheInvalidateSparesSharedPrefixItems(t *testing.T) {
	cache, srv := newTestCache(t)
	ctx := context.Background()

	load := func(v int64) func(context.Context) (decimal.Decimal, error) {
		return func(context.Context) (decimal.Decimal, error) {
			return decimal.NewFromInt(v), nil
		}
	}
	// Item ids 10, 12 and 100 share item 1's decimal prefix.
	for _, id := range []int64{1, 10, 12, 100} {
		_, err := cache.Fetch(ctx, itemStockKey(id), load(id))
		require.NoError(t, err)
		_, err = cache.Fetch(ctx, locationStockKey(id, 7), load(id))
		require.NoError(t, err)
	}

	require.NoError(t, cache.Invalidate(ctx, 1))

	require.False(t, srv.Exists(itemStockKey(1)))
	require.False(t, srv.Exists(locationStockKey(1, 7)))
	for _, id := range []int64{10, 12, 100} {
		require.True(t, srv.Exists(itemStockKey(id)))
		require.True(t, srv.Exists(locationStockKey(id, 7)))
	}
}

func TestStockCacheNilClientPassesThrough(t *testing.T) {
	var cache *StockCache
	ctx := context.Background()

	value, err := cache.Fetch(ctx, itemStockKey(1), func(context.Context) (decimal.Decimal, error) {
		return decimal.NewFromInt(7), nil
	})
	require.NoError(t, err)
	require.True(t, value.Equal(decimal.NewFromInt(7)))
	require.NoError(t, cache.Invalidate(ctx, 1))
}
