package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WALKERIS/visionrpweb/internal/domain"
)

// setupTestRedis creates a miniredis server and returns a RedisCache instance
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisCache(client, time.Hour), mr
}

func TestRedisCache_SetGet(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	snap := domain.CartSnapshot{
		Lines: []domain.CartLine{
			{VehicleID: "1", Name: "Adder Supercar", Price: decimal.NewFromInt(1_000_000), Quantity: 2},
		},
		Total:   decimal.NewFromInt(2_000_000),
		Count:   1,
		Version: 3,
	}
	require.NoError(t, cache.Set(ctx, "v1", snap))
	assert.True(t, mr.Exists("cart:v1"))

	ttl := mr.TTL("cart:v1")
	assert.GreaterOrEqual(t, ttl, time.Hour)
	assert.Less(t, ttl, time.Hour+5*time.Minute)

	got, err := cache.Get(ctx, "v1")
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "1", got.Lines[0].VehicleID)
	assert.True(t, snap.Total.Equal(got.Total))
	assert.Equal(t, uint64(3), got.Version)
}

func TestRedisCache_Miss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	got, err := cache.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, got)
}

func TestRedisCache_InvalidJSON(t *testing.T) {
	cache, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("cart:v1", "{not json"))

	_, err := cache.Get(context.Background(), "v1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal cart failed")
}

func TestRedisCache_Delete(t *testing.T) {
	cache, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("cart:v1", "{}"))

	require.NoError(t, cache.Delete(context.Background(), "v1"))
	assert.False(t, mr.Exists("cart:v1"))
}

func TestRedisCache_ServerDown(t *testing.T) {
	cache, mr := setupTestRedis(t)
	mr.Close()

	_, err := cache.Get(context.Background(), "v1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestSync_RestoresAndMirrors(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "v1", domain.CartSnapshot{
		Lines: []domain.CartLine{{VehicleID: "2", Name: "Sultan RS Classic", Price: decimal.NewFromInt(450_000), Quantity: 1}},
	}))

	store := NewStore()
	detach := NewSync(cache, nil).Attach(ctx, "v1", store)

	require.Equal(t, 1, store.Count())
	assert.True(t, decimal.NewFromInt(450_000).Equal(store.Total()))

	_, err := store.UpdateQuantity("2", 3)
	require.NoError(t, err)
	got, err := cache.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Lines[0].Quantity)

	_, err = store.Clear()
	require.NoError(t, err)
	assert.False(t, mr.Exists("cart:v1"))

	detach()
	_, err = store.AddItem(domain.Vehicle{ID: "1", Name: "Adder Supercar", Price: decimal.NewFromInt(1)})
	require.NoError(t, err)
	assert.False(t, mr.Exists("cart:v1"))
}

func TestSync_CacheDownDoesNotBreakCart(t *testing.T) {
	cache, mr := setupTestRedis(t)
	mr.Close()

	store := NewStore()
	NewSync(cache, nil).Attach(context.Background(), "v1", store)

	snap, err := store.AddItem(domain.Vehicle{ID: "1", Name: "Adder Supercar", Price: decimal.NewFromInt(1)})
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Count)
}
