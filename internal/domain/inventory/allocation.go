package inventory

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationLine is one lot's contribution to a planned sale
type AllocationLine struct {
	BatchID      uuid.UUID       `json:"batch_id"`
	BatchNumber  string          `json:"batch_number"`
	Quantity     decimal.Decimal `json:"quantity"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

// Cost is the cost basis of the line
func (l AllocationLine) Cost() decimal.Decimal {
	return l.Quantity.Mul(l.CostPrice)
}

// Revenue is the line's contribution at each lot's selling price
func (l AllocationLine) Revenue() decimal.Decimal {
	return l.Quantity.Mul(l.SellingPrice)
}

// AllocationPlan is the outcome of FIFO planning for one product: which
// lots to draw on and how much from each, in consumption order
type AllocationPlan struct {
	ProductID uuid.UUID        `json:"product_id"`
	Requested decimal.Decimal  `json:"requested"`
	Lines     []AllocationLine `json:"lines"`
}

// TotalCost sums the cost basis across all lines
func (p AllocationPlan) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, line := range p.Lines {
		total = total.Add(line.Cost())
	}
	return total
}

// TotalRevenue sums revenue across all lines at lot selling prices
func (p AllocationPlan) TotalRevenue() decimal.Decimal {
	total := decimal.Zero
	for _, line := range p.Lines {
		total = total.Add(line.Revenue())
	}
	return total
}

// Profit is revenue minus cost
func (p AllocationPlan) Profit() decimal.Decimal {
	return p.TotalRevenue().Sub(p.TotalCost())
}

// ProfitMargin is profit over revenue. Zero revenue yields zero.
func (p AllocationPlan) ProfitMargin() decimal.Decimal {
	revenue := p.TotalRevenue()
	if revenue.IsZero() {
		return decimal.Zero
	}
	return p.Profit().Div(revenue)
}

// AverageCostPrice is the quantity-weighted average cost per unit
func (p AllocationPlan) AverageCostPrice() decimal.Decimal {
	if p.Requested.IsZero() {
		return decimal.Zero
	}
	return p.TotalCost().Div(p.Requested)
}

// AverageSellingPrice is the quantity-weighted average selling price per unit
func (p AllocationPlan) AverageSellingPrice() decimal.Decimal {
	if p.Requested.IsZero() {
		return decimal.Zero
	}
	return p.TotalRevenue().Div(p.Requested)
}

// PlanFIFOAllocation picks lots oldest purchase date first, breaking ties by
// creation time, and drains each lot's available quantity greedily before
// moving on. Expired lots, non-active lots, and reserved quantity never
// contribute. The plan is all-or-nothing: when the allocatable total falls
// short nothing is planned and the shortfall is reported against the product.
func PlanFIFOAllocation(productID uuid.UUID, requested decimal.Decimal, batches []*Batch, now time.Time) (*AllocationPlan, error) {
	if !requested.IsPositive() {
		return nil, NewValidationError("requested quantity must be positive")
	}

	candidates := make([]*Batch, 0, len(batches))
	for _, b := range batches {
		if b.ProductID == productID && b.IsAllocatable(now) {
			candidates = append(candidates, b)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].PurchaseDate.Equal(candidates[j].PurchaseDate) {
			return candidates[i].PurchaseDate.Before(candidates[j].PurchaseDate)
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})

	available := decimal.Zero
	for _, b := range candidates {
		available = available.Add(b.AvailableQuantity())
	}
	if available.LessThan(requested) {
		return nil, NewInsufficientStockError(productID, requested, available)
	}

	plan := &AllocationPlan{ProductID: productID, Requested: requested}
	remaining := requested
	for _, b := range candidates {
		if remaining.IsZero() {
			break
		}
		take := decimal.Min(remaining, b.AvailableQuantity())
		plan.Lines = append(plan.Lines, AllocationLine{
			BatchID:      b.ID,
			BatchNumber:  b.BatchNumber,
			Quantity:     take,
			CostPrice:    b.CostPrice,
			SellingPrice: b.SellingPrice,
		})
		remaining = remaining.Sub(take)
	}
	return plan, nil
}
