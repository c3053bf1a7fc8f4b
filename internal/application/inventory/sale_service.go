package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lotledger/backend/internal/domain/inventory"
	"github.com/lotledger/backend/internal/domain/shared"
)

const (
	// saleRetryAttempts bounds replanning when concurrent sales race for
	// the same lots
	saleRetryAttempts = 3
	// rollbackAttempts bounds version-conflict retries while compensating
	// a partially committed plan
	rollbackAttempts = 3

	saleSequence = "sale_order"
)

// SaleService commits FIFO sales. A sale is planned against a snapshot of
// allocatable lots, then committed lot by lot under optimistic locking;
// if another writer wins a lot's version race the whole plan is rolled
// back and replanned from fresh state.
type SaleService struct {
	batchRepo    inventory.BatchRepository
	productRepo  inventory.ProductRepository
	movementRepo inventory.StockMovementRepository
	seqRepo      inventory.SequenceRepository
	stockCache   ProductStockCache
	logger       *zap.Logger
}

// NewSaleService creates a new SaleService
func NewSaleService(
	batchRepo inventory.BatchRepository,
	productRepo inventory.ProductRepository,
	movementRepo inventory.StockMovementRepository,
	seqRepo inventory.SequenceRepository,
	logger *zap.Logger,
) *SaleService {
	return &SaleService{
		batchRepo:    batchRepo,
		productRepo:  productRepo,
		movementRepo: movementRepo,
		seqRepo:      seqRepo,
		logger:       logger,
	}
}

// SetStockCache attaches an optional stock level cache
func (s *SaleService) SetStockCache(cache ProductStockCache) {
	s.stockCache = cache
}

// Sell debits req.Quantity of a product across its lots oldest first.
// The sale is all or nothing: on any shortfall or unrecoverable conflict
// no lot, ledger, or stock level change survives.
func (s *SaleService) Sell(ctx context.Context, req SellRequest) (*SaleResult, error) {
	if !req.Quantity.IsPositive() {
		return nil, inventory.NewValidationError("sale quantity must be positive")
	}
	if _, err := s.productRepo.FindByID(ctx, req.ProductID); err != nil {
		return nil, err
	}

	reference := req.Reference
	if reference == "" {
		seq, err := s.seqRepo.Next(ctx, saleSequence)
		if err != nil {
			return nil, err
		}
		reference = fmt.Sprintf("SO-%06d", seq)
	}

	var plan *inventory.AllocationPlan
	var lastErr error
	for attempt := 0; attempt < saleRetryAttempts; attempt++ {
		batches, err := s.batchRepo.FindAllocatable(ctx, req.ProductID, time.Now())
		if err != nil {
			return nil, err
		}
		plan, err = inventory.PlanFIFOAllocation(req.ProductID, req.Quantity, batches, time.Now())
		if err != nil {
			return nil, err
		}

		byID := make(map[uuid.UUID]*inventory.Batch, len(batches))
		for _, b := range batches {
			byID[b.ID] = b
		}

		lastErr = s.commitPlan(ctx, plan, byID)
		if lastErr == nil {
			break
		}
		if !errors.Is(lastErr, shared.ErrConcurrentModification) {
			return nil, lastErr
		}
		s.logger.Debug("sale lost a version race, replanning",
			zap.String("product_id", req.ProductID.String()),
			zap.Int("attempt", attempt+1))
	}
	if lastErr != nil {
		return nil, shared.NewDomainError("CONCURRENT_MODIFICATION",
			"sale could not be committed after repeated conflicts")
	}

	newStock, err := s.productRepo.AdjustCurrentStock(ctx, req.ProductID, req.Quantity.Neg())
	if err != nil {
		s.rollbackPlan(ctx, plan, len(plan.Lines))
		return nil, err
	}
	prevStock := newStock.Add(req.Quantity)

	movements := make([]*inventory.StockMovement, 0, len(plan.Lines))
	running := prevStock
	for _, line := range plan.Lines {
		next := running.Sub(line.Quantity)
		movement, err := inventory.NewStockMovement(req.ProductID, inventory.MovementTypeSale,
			line.Quantity.Neg(), running, next)
		if err != nil {
			return nil, err
		}
		movement.WithBatch(line.BatchID).WithUnitCost(line.CostPrice).WithReference(reference)
		if req.OperatorID != nil {
			movement.WithOperator(*req.OperatorID)
		}
		movements = append(movements, movement)
		running = next
	}
	if err := s.movementRepo.SaveAll(ctx, movements); err != nil {
		if _, aerr := s.productRepo.AdjustCurrentStock(ctx, req.ProductID, req.Quantity); aerr != nil {
			s.logger.Error("stock compensation failed after ledger write error",
				zap.String("product_id", req.ProductID.String()), zap.Error(aerr))
		}
		s.rollbackPlan(ctx, plan, len(plan.Lines))
		return nil, err
	}
	s.updateStockCache(ctx, req.ProductID, newStock)

	lines := make([]SaleLine, 0, len(plan.Lines))
	for _, line := range plan.Lines {
		lines = append(lines, SaleLine{
			BatchID:      line.BatchID,
			BatchNumber:  line.BatchNumber,
			Quantity:     line.Quantity,
			CostPrice:    line.CostPrice,
			SellingPrice: line.SellingPrice,
		})
	}

	s.logger.Info("sale committed",
		zap.String("reference", reference),
		zap.String("product_id", req.ProductID.String()),
		zap.String("quantity", req.Quantity.String()),
		zap.Int("batches", len(lines)))

	return &SaleResult{
		ProductID:           req.ProductID,
		Reference:           reference,
		Quantity:            req.Quantity,
		Lines:               lines,
		TotalCost:           plan.TotalCost(),
		TotalRevenue:        plan.TotalRevenue(),
		Profit:              plan.Profit(),
		ProfitMargin:        plan.ProfitMargin(),
		AverageCostPrice:    plan.AverageCostPrice(),
		AverageSellingPrice: plan.AverageSellingPrice(),
		RemainingStock:      newStock,
	}, nil
}

// commitPlan reduces each planned lot under its optimistic lock. On the
// first failure every already reduced lot is restored before returning.
func (s *SaleService) commitPlan(ctx context.Context, plan *inventory.AllocationPlan, byID map[uuid.UUID]*inventory.Batch) error {
	for i, line := range plan.Lines {
		batch := byID[line.BatchID]
		if err := batch.Reduce(line.Quantity); err != nil {
			s.rollbackPlan(ctx, plan, i)
			return err
		}
		if err := s.batchRepo.SaveWithLock(ctx, batch); err != nil {
			s.rollbackPlan(ctx, plan, i)
			return err
		}
	}
	return nil
}

// rollbackPlan restores the first n committed lines in reverse order,
// reloading each lot so the compensation lands on current state
func (s *SaleService) rollbackPlan(ctx context.Context, plan *inventory.AllocationPlan, n int) {
	for i := n - 1; i >= 0; i-- {
		line := plan.Lines[i]
		if err := s.restoreBatch(ctx, line.BatchID, line); err != nil {
			s.logger.Error("rollback failed, batch left short",
				zap.String("batch_number", line.BatchNumber),
				zap.String("quantity", line.Quantity.String()),
				zap.Error(err))
		}
	}
}

func (s *SaleService) restoreBatch(ctx context.Context, batchID uuid.UUID, line inventory.AllocationLine) error {
	var lastErr error
	for attempt := 0; attempt < rollbackAttempts; attempt++ {
		batch, err := s.batchRepo.FindByID(ctx, batchID)
		if err != nil {
			return err
		}
		if err := batch.Restore(line.Quantity); err != nil {
			return err
		}
		lastErr = s.batchRepo.SaveWithLock(ctx, batch)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, shared.ErrConcurrentModification) {
			return lastErr
		}
	}
	return lastErr
}

func (s *SaleService) updateStockCache(ctx context.Context, productID uuid.UUID, stock decimal.Decimal) {
	if s.stockCache == nil {
		return
	}
	if err := s.stockCache.SetStock(ctx, productID, stock); err != nil {
		s.logger.Warn("stock cache update failed",
			zap.String("product_id", productID.String()), zap.Error(err))
	}
}
