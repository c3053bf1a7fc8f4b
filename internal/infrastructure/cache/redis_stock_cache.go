package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lotledger/backend/internal/infrastructure/config"
)

const defaultStockTTL = 5 * time.Minute

// RedisStockCache stores product stock levels in Redis. Entries carry a
// TTL so a missed invalidation heals itself on expiry.
type RedisStockCache struct {
	client     *redis.Client
	ownsClient bool
	ttl        time.Duration
	logger     *zap.Logger
}

// RedisStockCacheOption is a functional option for configuring the cache
type RedisStockCacheOption func(*RedisStockCache)

// WithStockTTL sets the expiry applied to cached stock levels
func WithStockTTL(ttl time.Duration) RedisStockCacheOption {
	return func(c *RedisStockCache) {
		c.ttl = ttl
	}
}

// WithStockCacheLogger sets the logger for the cache
func WithStockCacheLogger(logger *zap.Logger) RedisStockCacheOption {
	return func(c *RedisStockCache) {
		c.logger = logger
	}
}

// NewRedisStockCache creates a Redis-backed stock cache and verifies the
// connection before returning
func NewRedisStockCache(cfg config.RedisConfig, opts ...RedisStockCacheOption) (*RedisStockCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cache := &RedisStockCache{
		client:     client,
		ownsClient: true,
		ttl:        defaultStockTTL,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache, nil
}

// NewRedisStockCacheWithClient creates a cache with an existing Redis client.
// The caller retains ownership of the client and is responsible for closing it.
func NewRedisStockCacheWithClient(client *redis.Client, opts ...RedisStockCacheOption) *RedisStockCache {
	cache := &RedisStockCache{
		client:     client,
		ownsClient: false,
		ttl:        defaultStockTTL,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

func (c *RedisStockCache) stockKey(productID uuid.UUID) string {
	return fmt.Sprintf("stock:product:%s", productID.String())
}

// GetStock returns the cached stock level for a product. The second return
// value reports whether the key was present.
func (c *RedisStockCache) GetStock(ctx context.Context, productID uuid.UUID) (decimal.Decimal, bool, error) {
	key := c.stockKey(productID)

	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to get stock from cache: %w", err)
	}

	stock, err := decimal.NewFromString(data)
	if err != nil {
		c.logger.Warn("Dropping corrupted stock cache entry",
			zap.String("product_id", productID.String()),
			zap.Error(err))
		_ = c.client.Del(ctx, key)
		return decimal.Zero, false, nil
	}

	return stock, true, nil
}

// SetStock stores the stock level for a product
func (c *RedisStockCache) SetStock(ctx context.Context, productID uuid.UUID, stock decimal.Decimal) error {
	if err := c.client.Set(ctx, c.stockKey(productID), stock.String(), c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set stock in cache: %w", err)
	}
	return nil
}

// Invalidate removes the cached stock level for a product
func (c *RedisStockCache) Invalidate(ctx context.Context, productID uuid.UUID) error {
	if err := c.client.Del(ctx, c.stockKey(productID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate stock cache: %w", err)
	}
	return nil
}

// Close closes the Redis client if this cache owns it
func (c *RedisStockCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}
