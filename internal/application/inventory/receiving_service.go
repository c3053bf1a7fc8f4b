package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lotledger/backend/internal/domain/inventory"
)

const receiptSequence = "goods_receipt"

// ReceivingService books multi-product supplier deliveries. All lines are
// validated before any lot is created so an invalid line rejects the whole
// delivery up front.
type ReceivingService struct {
	batches     *BatchService
	productRepo inventory.ProductRepository
	seqRepo     inventory.SequenceRepository
	logger      *zap.Logger
}

// NewReceivingService creates a new ReceivingService
func NewReceivingService(
	batches *BatchService,
	productRepo inventory.ProductRepository,
	seqRepo inventory.SequenceRepository,
	logger *zap.Logger,
) *ReceivingService {
	return &ReceivingService{
		batches:     batches,
		productRepo: productRepo,
		seqRepo:     seqRepo,
		logger:      logger,
	}
}

// Receive books one delivery: validates every line, then creates one lot
// per line under a shared goods receipt reference
func (s *ReceivingService) Receive(ctx context.Context, req ReceiveRequest) (*ReceiveResult, error) {
	if len(req.Lines) == 0 {
		return nil, inventory.NewValidationError("delivery has no lines")
	}
	for i, line := range req.Lines {
		if err := s.validateLine(ctx, i, line); err != nil {
			return nil, err
		}
	}

	reference := req.Reference
	if reference == "" {
		seq, err := s.seqRepo.Next(ctx, receiptSequence)
		if err != nil {
			return nil, err
		}
		reference = fmt.Sprintf("GRN-%06d", seq)
	}

	result := &ReceiveResult{Reference: reference}
	for _, line := range req.Lines {
		batch, err := s.batches.CreateBatch(ctx, CreateBatchRequest{
			ProductID:       line.ProductID,
			Quantity:        line.Quantity,
			CostPrice:       line.CostPrice,
			SellingPrice:    line.SellingPrice,
			ExpiryDate:      line.ExpiryDate,
			SupplierID:      req.SupplierID,
			PurchaseOrderID: req.PurchaseOrderID,
			Reference:       reference,
			OperatorID:      req.OperatorID,
		})
		if err != nil {
			return nil, err
		}
		result.Batches = append(result.Batches, batch)
	}

	s.logger.Info("delivery received",
		zap.String("reference", reference),
		zap.Int("lines", len(result.Batches)))
	return result, nil
}

func (s *ReceivingService) validateLine(ctx context.Context, idx int, line ReceiveLineRequest) error {
	if line.Quantity.LessThan(decimal.NewFromInt(1)) {
		return inventory.NewValidationError(fmt.Sprintf("line %d: quantity must be at least 1", idx+1))
	}
	if line.CostPrice.IsNegative() || line.SellingPrice.IsNegative() {
		return inventory.NewValidationError(fmt.Sprintf("line %d: prices cannot be negative", idx+1))
	}
	product, err := s.productRepo.FindByID(ctx, line.ProductID)
	if err != nil {
		return inventory.NewValidationError(fmt.Sprintf("line %d: unknown product %s", idx+1, line.ProductID))
	}
	if !product.IsActive {
		return inventory.NewValidationError(fmt.Sprintf("line %d: product %s is not active", idx+1, product.Barcode))
	}
	return nil
}
