package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStockCache caches product stock levels for fast lookups. Writes
// are best effort: services log and continue when the cache is down, the
// database remains the source of truth.
type ProductStockCache interface {
	GetStock(ctx context.Context, productID uuid.UUID) (decimal.Decimal, bool, error)
	SetStock(ctx context.Context, productID uuid.UUID, stock decimal.Decimal) error
	Invalidate(ctx context.Context, productID uuid.UUID) error
}
