package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type stockEntry struct {
	stock     decimal.Decimal
	expiresAt time.Time
}

// InMemoryStockCache implements the stock cache with an in-memory map.
// This is suitable for single-instance deployments and testing.
type InMemoryStockCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]stockEntry
	ttl     time.Duration
}

// NewInMemoryStockCache creates a new in-memory stock cache
func NewInMemoryStockCache() *InMemoryStockCache {
	return &InMemoryStockCache{
		entries: make(map[uuid.UUID]stockEntry),
		ttl:     defaultStockTTL,
	}
}

// GetStock returns the cached stock level for a product. The second return
// value reports whether a live entry was present.
func (c *InMemoryStockCache) GetStock(ctx context.Context, productID uuid.UUID) (decimal.Decimal, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[productID]
	if !exists || time.Now().After(e.expiresAt) {
		return decimal.Zero, false, nil
	}
	return e.stock, true, nil
}

// SetStock stores the stock level for a product
func (c *InMemoryStockCache) SetStock(ctx context.Context, productID uuid.UUID, stock decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[productID] = stockEntry{
		stock:     stock,
		expiresAt: time.Now().Add(c.ttl),
	}
	return nil
}

// Invalidate removes the cached stock level for a product
func (c *InMemoryStockCache) Invalidate(ctx context.Context, productID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, productID)
	return nil
}
