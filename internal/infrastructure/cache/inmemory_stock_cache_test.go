package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinventory "github.com/lotledger/backend/internal/application/inventory"
)

var _ appinventory.ProductStockCache = (*InMemoryStockCache)(nil)

func TestInMemoryStockCacheSetAndGet(t *testing.T) {
	cache := NewInMemoryStockCache()
	ctx := context.Background()
	productID := uuid.New()

	stock, found, err := cache.GetStock(ctx, productID)
	require.NoError(t, err)
	assert.False(t, found)
	assert.True(t, stock.IsZero())

	require.NoError(t, cache.SetStock(ctx, productID, decimal.NewFromInt(42)))

	stock, found, err = cache.GetStock(ctx, productID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, stock.Equal(decimal.NewFromInt(42)))
}

func TestInMemoryStockCacheOverwrite(t *testing.T) {
	cache := NewInMemoryStockCache()
	ctx := context.Background()
	productID := uuid.New()

	require.NoError(t, cache.SetStock(ctx, productID, decimal.NewFromInt(10)))
	require.NoError(t, cache.SetStock(ctx, productID, decimal.NewFromInt(7)))

	stock, found, err := cache.GetStock(ctx, productID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, stock.Equal(decimal.NewFromInt(7)))
}

func TestInMemoryStockCacheInvalidate(t *testing.T) {
	cache := NewInMemoryStockCache()
	ctx := context.Background()
	productID := uuid.New()

	require.NoError(t, cache.SetStock(ctx, productID, decimal.NewFromInt(5)))
	require.NoError(t, cache.Invalidate(ctx, productID))

	_, found, err := cache.GetStock(ctx, productID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInMemoryStockCacheInvalidateMissingKey(t *testing.T) {
	cache := NewInMemoryStockCache()

	err := cache.Invalidate(context.Background(), uuid.New())
	assert.NoError(t, err)
}

func TestInMemoryStockCacheExpiry(t *testing.T) {
	cache := NewInMemoryStockCache()
	cache.ttl = 10 * time.Millisecond
	ctx := context.Background()
	productID := uuid.New()

	require.NoError(t, cache.SetStock(ctx, productID, decimal.NewFromInt(5)))

	time.Sleep(30 * time.Millisecond)

	_, found, err := cache.GetStock(ctx, productID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInMemoryStockCacheConcurrentAccess(t *testing.T) {
	cache := NewInMemoryStockCache()
	ctx := context.Background()
	productID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = cache.SetStock(ctx, productID, decimal.NewFromInt(int64(n)))
			_, _, _ = cache.GetStock(ctx, productID)
		}(i)
	}
	wg.Wait()

	_, found, err := cache.GetStock(ctx, productID)
	require.NoError(t, err)
	assert.True(t, found)
}
