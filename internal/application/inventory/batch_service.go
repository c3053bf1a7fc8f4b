package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lotledger/backend/internal/domain/inventory"
	"github.com/lotledger/backend/internal/domain/shared"
)

// batchNumberAttempts bounds retries when two receipts race for the same
// per-day sequence slot
const batchNumberAttempts = 5

// BatchService handles lot lifecycle operations: receiving, adjustment,
// write-off, reservation, and reconciliation against the cached stock level
type BatchService struct {
	batchRepo    inventory.BatchRepository
	productRepo  inventory.ProductRepository
	movementRepo inventory.StockMovementRepository
	stockCache   ProductStockCache
	logger       *zap.Logger
}

// NewBatchService creates a new BatchService
func NewBatchService(
	batchRepo inventory.BatchRepository,
	productRepo inventory.ProductRepository,
	movementRepo inventory.StockMovementRepository,
	logger *zap.Logger,
) *BatchService {
	return &BatchService{
		batchRepo:    batchRepo,
		productRepo:  productRepo,
		movementRepo: movementRepo,
		logger:       logger,
	}
}

// SetStockCache attaches an optional stock level cache
func (s *BatchService) SetStockCache(cache ProductStockCache) {
	s.stockCache = cache
}

// CreateBatch receives one lot into stock. It assigns the next per-product
// per-day batch number, credits the product stock cache column, and writes
// a purchase ledger entry.
func (s *BatchService) CreateBatch(ctx context.Context, req CreateBatchRequest) (*BatchResponse, error) {
	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, shared.NewDomainError("INVALID_STATE", "product is not active")
	}

	purchaseDate := time.Now()
	if req.PurchaseDate != nil {
		purchaseDate = *req.PurchaseDate
	}

	var batch *inventory.Batch
	for attempt := 0; attempt < batchNumberAttempts; attempt++ {
		seq, err := s.batchRepo.CountByProductAndDay(ctx, req.ProductID, purchaseDate)
		if err != nil {
			return nil, err
		}
		number := inventory.FormatBatchNumber(purchaseDate, seq+1)

		batch, err = inventory.NewBatch(req.ProductID, number, req.Quantity,
			req.CostPrice, req.SellingPrice, purchaseDate, req.ExpiryDate, req.SupplierID)
		if err != nil {
			return nil, err
		}
		batch.PurchaseOrderID = req.PurchaseOrderID
		err = s.batchRepo.Save(ctx, batch)
		if err == nil {
			break
		}
		if !errors.Is(err, shared.ErrAlreadyExists) {
			return nil, err
		}
		batch = nil
	}
	if batch == nil {
		return nil, shared.NewDomainError("CONFLICT", "could not assign a unique batch number")
	}

	newStock, err := s.productRepo.AdjustCurrentStock(ctx, req.ProductID, req.Quantity)
	if err != nil {
		return nil, err
	}

	reference := req.Reference
	if reference == "" {
		reference = batch.BatchNumber
	}
	movement, err := inventory.NewStockMovement(req.ProductID, inventory.MovementTypePurchase,
		req.Quantity, newStock.Sub(req.Quantity), newStock)
	if err != nil {
		return nil, err
	}
	movement.WithBatch(batch.ID).WithUnitCost(req.CostPrice).WithReference(reference)
	if req.OperatorID != nil {
		movement.WithOperator(*req.OperatorID)
	}
	if err := s.movementRepo.Save(ctx, movement); err != nil {
		return nil, err
	}

	if req.SellingPrice.LessThan(req.CostPrice) {
		s.logger.Warn("receiving below cost",
			zap.String("batch_number", batch.BatchNumber),
			zap.String("cost_price", req.CostPrice.String()),
			zap.String("selling_price", req.SellingPrice.String()))
	}
	if err := s.productRepo.UpdatePrices(ctx, req.ProductID, req.CostPrice, req.SellingPrice); err != nil {
		s.logger.Warn("failed to refresh product prices",
			zap.String("product_id", req.ProductID.String()), zap.Error(err))
	}
	s.updateStockCache(ctx, req.ProductID, newStock)

	s.logger.Info("batch received",
		zap.String("batch_number", batch.BatchNumber),
		zap.String("product_id", req.ProductID.String()),
		zap.String("quantity", req.Quantity.String()))

	return ToBatchResponse(batch), nil
}

// GetBatch retrieves a lot by id
func (s *BatchService) GetBatch(ctx context.Context, id uuid.UUID) (*BatchResponse, error) {
	batch, err := s.batchRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToBatchResponse(batch), nil
}

// GetBatchByNumber retrieves a lot by its batch number
func (s *BatchService) GetBatchByNumber(ctx context.Context, number string) (*BatchResponse, error) {
	batch, err := s.batchRepo.FindByBatchNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return ToBatchResponse(batch), nil
}

// ListBatches lists a product's lots, newest receipt first by default
func (s *BatchService) ListBatches(ctx context.Context, productID uuid.UUID, filter BatchListFilter) (*shared.Paginated[*BatchResponse], error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		f.OrderBy = filter.OrderBy
		f.OrderDir = filter.OrderDir
	}
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}

	page, err := s.batchRepo.FindByProduct(ctx, productID, f)
	if err != nil {
		return nil, err
	}

	items := make([]*BatchResponse, 0, len(page.Items))
	for _, b := range page.Items {
		items = append(items, ToBatchResponse(b))
	}
	return shared.NewPaginated(items, page.Total, page.Page, page.PageSize), nil
}

// AdjustBatch applies a signed stocktake correction to one lot, keeps the
// product stock cache column in step, and records the adjustment with its
// reason in the ledger
func (s *BatchService) AdjustBatch(ctx context.Context, batchID uuid.UUID, req AdjustBatchRequest) (*BatchResponse, error) {
	if req.Reason == "" {
		return nil, inventory.NewValidationError("adjustment reason is required")
	}

	batch, err := s.batchRepo.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if err := batch.Adjust(req.Delta); err != nil {
		return nil, err
	}
	if err := s.batchRepo.SaveWithLock(ctx, batch); err != nil {
		return nil, err
	}

	newStock, err := s.productRepo.AdjustCurrentStock(ctx, batch.ProductID, req.Delta)
	if err != nil {
		return nil, err
	}

	movement, err := inventory.NewStockMovement(batch.ProductID, inventory.MovementTypeAdjustment,
		req.Delta, newStock.Sub(req.Delta), newStock)
	if err != nil {
		return nil, err
	}
	movement.WithBatch(batch.ID).WithUnitCost(batch.CostPrice).WithReason(req.Reason)
	if req.OperatorID != nil {
		movement.WithOperator(*req.OperatorID)
	}
	if err := s.movementRepo.Save(ctx, movement); err != nil {
		return nil, err
	}
	s.updateStockCache(ctx, batch.ProductID, newStock)

	s.logger.Info("batch adjusted",
		zap.String("batch_number", batch.BatchNumber),
		zap.String("delta", req.Delta.String()),
		zap.String("reason", req.Reason))

	return ToBatchResponse(batch), nil
}

// WriteOffBatch removes a lot's remaining quantity from sellable stock and
// marks it expired, damaged, or returned. Any reservation on the lot is
// destroyed with it. A depleted lot has nothing to write off and is rejected.
func (s *BatchService) WriteOffBatch(ctx context.Context, batchID uuid.UUID, status inventory.BatchStatus, req WriteOffRequest) (*BatchResponse, error) {
	var movementType inventory.MovementType
	switch status {
	case inventory.BatchStatusExpired:
		movementType = inventory.MovementTypeExpired
	case inventory.BatchStatusDamaged:
		movementType = inventory.MovementTypeDamage
	case inventory.BatchStatusReturned:
		movementType = inventory.MovementTypeReturn
	default:
		return nil, inventory.NewValidationError("write-off status must be expired, damaged, or returned")
	}

	batch, err := s.batchRepo.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}

	writtenOff, err := batch.WriteOff(status)
	if err != nil {
		return nil, err
	}
	if err := s.batchRepo.SaveWithLock(ctx, batch); err != nil {
		return nil, err
	}

	newStock := decimal.Zero
	if writtenOff.IsPositive() {
		newStock, err = s.productRepo.AdjustCurrentStock(ctx, batch.ProductID, writtenOff.Neg())
		if err != nil {
			return nil, err
		}
	} else {
		product, err := s.productRepo.FindByID(ctx, batch.ProductID)
		if err != nil {
			return nil, err
		}
		newStock = product.CurrentStock
	}

	movement, err := inventory.NewStockMovement(batch.ProductID, movementType,
		writtenOff.Neg(), newStock.Add(writtenOff), newStock)
	if err != nil {
		return nil, err
	}
	movement.WithBatch(batch.ID).WithUnitCost(batch.CostPrice).WithReason(req.Reason)
	if req.OperatorID != nil {
		movement.WithOperator(*req.OperatorID)
	}
	if err := s.movementRepo.Save(ctx, movement); err != nil {
		return nil, err
	}
	s.updateStockCache(ctx, batch.ProductID, newStock)

	s.logger.Info("batch written off",
		zap.String("batch_number", batch.BatchNumber),
		zap.String("status", string(status)),
		zap.String("quantity", writtenOff.String()))

	return ToBatchResponse(batch), nil
}

// SetBatchStatus applies an administrative status change to one lot without
// touching its quantities. Depleted is never assigned this way, and a
// depleted lot must first be revived by a positive adjustment. The change is
// recorded as a zero quantity ledger entry.
func (s *BatchService) SetBatchStatus(ctx context.Context, batchID uuid.UUID, status inventory.BatchStatus, req SetStatusRequest) (*BatchResponse, error) {
	var movementType inventory.MovementType
	switch status {
	case inventory.BatchStatusExpired:
		movementType = inventory.MovementTypeExpired
	case inventory.BatchStatusDamaged:
		movementType = inventory.MovementTypeDamage
	case inventory.BatchStatusReturned:
		movementType = inventory.MovementTypeReturn
	case inventory.BatchStatusActive:
		movementType = inventory.MovementTypeAdjustment
	default:
		return nil, inventory.NewValidationError("status must be active, expired, damaged, or returned")
	}

	batch, err := s.batchRepo.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if err := batch.SetStatus(status); err != nil {
		return nil, err
	}
	if err := s.batchRepo.SaveWithLock(ctx, batch); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, batch.ProductID)
	if err != nil {
		return nil, err
	}
	movement, err := inventory.NewStockMovement(batch.ProductID, movementType,
		decimal.Zero, product.CurrentStock, product.CurrentStock)
	if err != nil {
		return nil, err
	}
	movement.WithBatch(batch.ID).WithUnitCost(batch.CostPrice).WithReason(req.Reason)
	if req.OperatorID != nil {
		movement.WithOperator(*req.OperatorID)
	}
	if err := s.movementRepo.Save(ctx, movement); err != nil {
		return nil, err
	}

	s.logger.Info("batch status changed",
		zap.String("batch_number", batch.BatchNumber),
		zap.String("status", string(status)))

	return ToBatchResponse(batch), nil
}

// ReserveBatch earmarks quantity in one lot. Reserved quantity is held out
// of the sellable balance until released or the lot is written off.
func (s *BatchService) ReserveBatch(ctx context.Context, batchID uuid.UUID, req ReserveRequest) (*BatchResponse, error) {
	batch, err := s.batchRepo.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if err := batch.Reserve(req.Quantity); err != nil {
		return nil, err
	}
	if err := s.batchRepo.SaveWithLock(ctx, batch); err != nil {
		return nil, err
	}
	return ToBatchResponse(batch), nil
}

// ReleaseBatchReservation hands back part of an earlier reservation
func (s *BatchService) ReleaseBatchReservation(ctx context.Context, batchID uuid.UUID, req ReserveRequest) (*BatchResponse, error) {
	batch, err := s.batchRepo.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if err := batch.ReleaseReserved(req.Quantity); err != nil {
		return nil, err
	}
	if err := s.batchRepo.SaveWithLock(ctx, batch); err != nil {
		return nil, err
	}
	return ToBatchResponse(batch), nil
}

// MarkExpiredBatches sweeps active lots whose expiry date has passed and
// writes each off as expired. Returns the number of lots written off.
func (s *BatchService) MarkExpiredBatches(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.batchRepo.FindExpiringWithin(ctx, now, 0)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, batch := range expired {
		if batch.Status != inventory.BatchStatusActive {
			continue
		}
		if _, err := s.WriteOffBatch(ctx, batch.ID, inventory.BatchStatusExpired,
			WriteOffRequest{Reason: "expiry sweep"}); err != nil {
			s.logger.Error("failed to write off expired batch",
				zap.String("batch_number", batch.BatchNumber), zap.Error(err))
			continue
		}
		count++
	}
	return count, nil
}

// ListMovements pages through a product's ledger, newest first
func (s *BatchService) ListMovements(ctx context.Context, productID uuid.UUID, filter shared.Filter) (*shared.Paginated[*MovementResponse], error) {
	page, err := s.movementRepo.FindByProduct(ctx, productID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]*MovementResponse, 0, len(page.Items))
	for _, m := range page.Items {
		items = append(items, ToMovementResponse(m))
	}
	return shared.NewPaginated(items, page.Total, page.Page, page.PageSize), nil
}

// ReconcileProductStock compares the cached product stock against the sum
// of its lots and repairs drift in place. No ledger entry is written since
// nothing physically moved.
func (s *BatchService) ReconcileProductStock(ctx context.Context, productID uuid.UUID) (*ReconcileResult, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	batchTotal, err := s.batchRepo.SumCurrentByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	result := &ReconcileResult{
		ProductID:     productID,
		PreviousStock: product.CurrentStock,
		BatchTotal:    batchTotal,
		Drift:         product.CurrentStock.Sub(batchTotal),
	}
	if result.Drift.IsZero() {
		return result, nil
	}

	if err := s.productRepo.SetCurrentStock(ctx, productID, batchTotal); err != nil {
		return nil, err
	}
	s.updateStockCache(ctx, productID, batchTotal)
	result.Repaired = true

	s.logger.Warn("repaired product stock drift",
		zap.String("product_id", productID.String()),
		zap.String("drift", result.Drift.String()))
	return result, nil
}

func (s *BatchService) updateStockCache(ctx context.Context, productID uuid.UUID, stock decimal.Decimal) {
	if s.stockCache == nil {
		return
	}
	if err := s.stockCache.SetStock(ctx, productID, stock); err != nil {
		s.logger.Warn("stock cache update failed",
			zap.String("product_id", productID.String()), zap.Error(err))
	}
}
