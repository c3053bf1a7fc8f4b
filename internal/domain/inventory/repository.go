package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BatchRepository persists lots. SaveWithLock is the only write path used
// during allocation: it compares the in-memory version against the stored
// row and fails with shared.ErrConcurrentModification on a mismatch.
type BatchRepository interface {
	Save(ctx context.Context, batch *Batch) error
	SaveWithLock(ctx context.Context, batch *Batch) error
	FindByID(ctx context.Context, id uuid.UUID) (*Batch, error)
	FindByBatchNumber(ctx context.Context, batchNumber string) (*Batch, error)
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) (*shared.Paginated[*Batch], error)
	FindAllocatable(ctx context.Context, productID uuid.UUID, now time.Time) ([]*Batch, error)
	FindOnHand(ctx context.Context, productID uuid.UUID) ([]*Batch, error)
	FindExpiringWithin(ctx context.Context, now time.Time, window time.Duration) ([]*Batch, error)
	CountByProductAndDay(ctx context.Context, productID uuid.UUID, day time.Time) (int64, error)
	SumCurrentByProduct(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)
}

// StockMovementRepository is the append-only ledger store
type StockMovementRepository interface {
	Save(ctx context.Context, movement *StockMovement) error
	SaveAll(ctx context.Context, movements []*StockMovement) error
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) (*shared.Paginated[*StockMovement], error)
	FindByReference(ctx context.Context, reference string) ([]*StockMovement, error)
}

// ProductRepository persists catalog entries. AdjustCurrentStock applies a
// signed delta atomically in the store and returns the resulting level.
type ProductRepository interface {
	Save(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*Product, error)
	FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*Product], error)
	AdjustCurrentStock(ctx context.Context, productID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
	SetCurrentStock(ctx context.Context, productID uuid.UUID, stock decimal.Decimal) error
	UpdatePrices(ctx context.Context, productID uuid.UUID, costPrice, sellingPrice decimal.Decimal) error
}

// SequenceRepository hands out gapless-enough monotonically increasing
// counters shared across processes
type SequenceRepository interface {
	Next(ctx context.Context, name string) (int64, error)
}
