package inventory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lotledger/backend/internal/domain/inventory"
	"github.com/lotledger/backend/internal/domain/shared"
)

// memStore is a thread safe in-memory backing store shared by the fake
// repositories. It mimics the database contract the services rely on:
// reads hand out copies, SaveWithLock enforces version checks, and
// AdjustCurrentStock is atomic.
type memStore struct {
	mu        sync.Mutex
	batches   map[uuid.UUID]*inventory.Batch
	products  map[uuid.UUID]*inventory.Product
	movements []*inventory.StockMovement
	seqs      map[string]int64
}

func newMemStore() *memStore {
	return &memStore{
		batches:  make(map[uuid.UUID]*inventory.Batch),
		products: make(map[uuid.UUID]*inventory.Product),
		seqs:     make(map[string]int64),
	}
}

func copyBatch(b *inventory.Batch) *inventory.Batch {
	cp := *b
	return &cp
}

func copyProduct(p *inventory.Product) *inventory.Product {
	cp := *p
	return &cp
}

type memBatchRepo struct{ store *memStore }

func (r *memBatchRepo) Save(ctx context.Context, batch *inventory.Batch) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, existing := range r.store.batches {
		if id != batch.ID && existing.BatchNumber == batch.BatchNumber {
			return shared.ErrAlreadyExists
		}
	}
	r.store.batches[batch.ID] = copyBatch(batch)
	return nil
}

func (r *memBatchRepo) SaveWithLock(ctx context.Context, batch *inventory.Batch) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.batches[batch.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != batch.Version {
		return shared.ErrConcurrentModification
	}
	batch.IncrementVersion()
	r.store.batches[batch.ID] = copyBatch(batch)
	return nil
}

func (r *memBatchRepo) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.batches[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return copyBatch(b), nil
}

func (r *memBatchRepo) FindByBatchNumber(ctx context.Context, number string) (*inventory.Batch, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, b := range r.store.batches {
		if b.BatchNumber == number {
			return copyBatch(b), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memBatchRepo) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) (*shared.Paginated[*inventory.Batch], error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*inventory.Batch
	for _, b := range r.store.batches {
		if b.ProductID != productID {
			continue
		}
		if status, ok := filter.Filters["status"]; ok && string(b.Status) != status.(string) {
			continue
		}
		out = append(out, copyBatch(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PurchaseDate.After(out[j].PurchaseDate) })
	return shared.NewPaginated(out, int64(len(out)), filter.Page, filter.PageSize), nil
}

func (r *memBatchRepo) FindAllocatable(ctx context.Context, productID uuid.UUID, now time.Time) ([]*inventory.Batch, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*inventory.Batch
	for _, b := range r.store.batches {
		if b.ProductID == productID && b.IsAllocatable(now) {
			out = append(out, copyBatch(b))
		}
	}
	return out, nil
}

func (r *memBatchRepo) FindOnHand(ctx context.Context, productID uuid.UUID) ([]*inventory.Batch, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*inventory.Batch
	for _, b := range r.store.batches {
		if b.ProductID == productID && b.Status == inventory.BatchStatusActive && b.CurrentQuantity.IsPositive() {
			out = append(out, copyBatch(b))
		}
	}
	return out, nil
}

func (r *memBatchRepo) FindExpiringWithin(ctx context.Context, now time.Time, window time.Duration) ([]*inventory.Batch, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*inventory.Batch
	for _, b := range r.store.batches {
		if b.ExpiresWithin(now, window) {
			out = append(out, copyBatch(b))
		}
	}
	return out, nil
}

func (r *memBatchRepo) CountByProductAndDay(ctx context.Context, productID uuid.UUID, day time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var count int64
	y, m, d := day.Date()
	for _, b := range r.store.batches {
		by, bm, bd := b.PurchaseDate.Date()
		if b.ProductID == productID && by == y && bm == m && bd == d {
			count++
		}
	}
	return count, nil
}

func (r *memBatchRepo) SumCurrentByProduct(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	sum := decimal.Zero
	for _, b := range r.store.batches {
		if b.ProductID == productID {
			sum = sum.Add(b.CurrentQuantity)
		}
	}
	return sum, nil
}

type memProductRepo struct{ store *memStore }

func (r *memProductRepo) Save(ctx context.Context, product *inventory.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.products[product.ID] = copyProduct(product)
	return nil
}

func (r *memProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return copyProduct(p), nil
}

func (r *memProductRepo) FindByBarcode(ctx context.Context, barcode string) (*inventory.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range r.store.products {
		if p.Barcode == barcode {
			return copyProduct(p), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memProductRepo) FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*inventory.Product], error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*inventory.Product
	for _, p := range r.store.products {
		out = append(out, copyProduct(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Barcode < out[j].Barcode })
	return shared.NewPaginated(out, int64(len(out)), filter.Page, filter.PageSize), nil
}

func (r *memProductRepo) AdjustCurrentStock(ctx context.Context, productID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.products[productID]
	if !ok {
		return decimal.Zero, shared.ErrNotFound
	}
	next := p.CurrentStock.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, inventory.NewInsufficientStockError(productID, delta.Neg(), p.CurrentStock)
	}
	p.CurrentStock = next
	return next, nil
}

func (r *memProductRepo) UpdatePrices(ctx context.Context, productID uuid.UUID, costPrice, sellingPrice decimal.Decimal) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.products[productID]
	if !ok {
		return shared.ErrNotFound
	}
	p.CostPrice = costPrice
	p.SellingPrice = sellingPrice
	return nil
}

func (r *memProductRepo) SetCurrentStock(ctx context.Context, productID uuid.UUID, stock decimal.Decimal) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.products[productID]
	if !ok {
		return shared.ErrNotFound
	}
	p.CurrentStock = stock
	return nil
}

type memMovementRepo struct{ store *memStore }

func (r *memMovementRepo) Save(ctx context.Context, movement *inventory.StockMovement) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.movements = append(r.store.movements, movement)
	return nil
}

func (r *memMovementRepo) SaveAll(ctx context.Context, movements []*inventory.StockMovement) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.movements = append(r.store.movements, movements...)
	return nil
}

func (r *memMovementRepo) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) (*shared.Paginated[*inventory.StockMovement], error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*inventory.StockMovement
	for _, m := range r.store.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return shared.NewPaginated(out, int64(len(out)), filter.Page, filter.PageSize), nil
}

func (r *memMovementRepo) FindByReference(ctx context.Context, reference string) ([]*inventory.StockMovement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*inventory.StockMovement
	for _, m := range r.store.movements {
		if m.Reference == reference {
			out = append(out, m)
		}
	}
	return out, nil
}

type memSeqRepo struct{ store *memStore }

func (r *memSeqRepo) Next(ctx context.Context, name string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.seqs[name]++
	return r.store.seqs[name], nil
}
