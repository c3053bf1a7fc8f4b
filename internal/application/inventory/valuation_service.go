package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lotledger/backend/internal/domain/inventory"
	"github.com/lotledger/backend/internal/domain/shared"
)

// valuationPageSize controls how many products a report loads per page
const valuationPageSize = 200

// ValuationService produces stock valuation and expiry-risk reports from
// lot level cost bases
type ValuationService struct {
	batchRepo   inventory.BatchRepository
	productRepo inventory.ProductRepository
	logger      *zap.Logger
}

// NewValuationService creates a new ValuationService
func NewValuationService(
	batchRepo inventory.BatchRepository,
	productRepo inventory.ProductRepository,
	logger *zap.Logger,
) *ValuationService {
	return &ValuationService{
		batchRepo:   batchRepo,
		productRepo: productRepo,
		logger:      logger,
	}
}

// StockValuation values everything physically on hand at lot cost and lot
// selling prices: every active lot with quantity counts, reserved stock and
// lots awaiting an expiry sweep included. Written-off lots carry no value.
func (s *ValuationService) StockValuation(ctx context.Context) (*ValuationReport, error) {
	now := time.Now()
	report := &ValuationReport{
		GeneratedAt:      now,
		Products:         []ProductValuation{},
		TotalCostValue:   decimal.Zero,
		TotalRetailValue: decimal.Zero,
	}

	filter := shared.DefaultFilter()
	filter.PageSize = valuationPageSize
	for {
		page, err := s.productRepo.FindAll(ctx, filter)
		if err != nil {
			return nil, err
		}
		for _, product := range page.Items {
			batches, err := s.batchRepo.FindOnHand(ctx, product.ID)
			if err != nil {
				return nil, err
			}
			if len(batches) == 0 {
				continue
			}

			pv := ProductValuation{
				ProductID:   product.ID,
				ProductName: product.Name,
				Barcode:     product.Barcode,
				Quantity:    decimal.Zero,
				CostValue:   decimal.Zero,
				RetailValue: decimal.Zero,
				BatchCount:  len(batches),
			}
			for _, b := range batches {
				pv.Quantity = pv.Quantity.Add(b.CurrentQuantity)
				pv.CostValue = pv.CostValue.Add(b.BatchValue())
				pv.RetailValue = pv.RetailValue.Add(b.CurrentQuantity.Mul(b.SellingPrice))
			}
			report.Products = append(report.Products, pv)
			report.TotalCostValue = report.TotalCostValue.Add(pv.CostValue)
			report.TotalRetailValue = report.TotalRetailValue.Add(pv.RetailValue)
		}
		if len(page.Items) < filter.PageSize {
			break
		}
		filter.Page++
	}
	return report, nil
}

// ExpiryReport lists active lots that expire inside the next windowDays,
// already expired lots included, with the cost value at risk per lot
func (s *ValuationService) ExpiryReport(ctx context.Context, windowDays int) (*ExpiryReport, error) {
	if windowDays < 0 {
		return nil, inventory.NewValidationError("expiry window cannot be negative")
	}
	now := time.Now()
	window := time.Duration(windowDays) * 24 * time.Hour

	batches, err := s.batchRepo.FindExpiringWithin(ctx, now, window)
	if err != nil {
		return nil, err
	}

	report := &ExpiryReport{
		GeneratedAt:      now,
		WindowDays:       windowDays,
		Batches:          []ExpiringBatch{},
		TotalValueAtRisk: decimal.Zero,
	}
	for _, b := range batches {
		if b.Status != inventory.BatchStatusActive || !b.CurrentQuantity.IsPositive() {
			continue
		}
		days, ok := b.DaysUntilExpiry(now)
		if !ok {
			continue
		}
		risk := b.BatchValue()
		report.Batches = append(report.Batches, ExpiringBatch{
			Batch:           ToBatchResponse(b),
			DaysUntilExpiry: days,
			ValueAtRisk:     risk,
		})
		report.TotalValueAtRisk = report.TotalValueAtRisk.Add(risk)
	}
	return report, nil
}
