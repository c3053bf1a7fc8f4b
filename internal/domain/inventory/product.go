package inventory

import (
	"time"

	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product is the catalog entry a batch belongs to. CurrentStock is a cached
// aggregate of remaining lot quantities; batches hold the truth and the
// reconcile flow repairs drift.
type Product struct {
	shared.BaseAggregateRoot
	Barcode      string          `gorm:"uniqueIndex;size:64;not null" json:"barcode"`
	Name         string          `gorm:"size:128;not null" json:"name"`
	Category     string          `gorm:"size:64;index" json:"category"`
	Unit         string          `gorm:"size:16" json:"unit"`
	CostPrice    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"cost_price"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"selling_price"`
	CurrentStock decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"current_stock"`
	MinStock     decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"min_stock"`
	IsActive     bool            `gorm:"not null" json:"is_active"`
}

// TableName gives the GORM table name
func (Product) TableName() string {
	return "products"
}

// NewProduct creates an active catalog entry
func NewProduct(barcode, name string, costPrice, sellingPrice decimal.Decimal) (*Product, error) {
	if barcode == "" {
		return nil, NewValidationError("barcode is required")
	}
	if name == "" {
		return nil, NewValidationError("product name is required")
	}
	if costPrice.IsNegative() {
		return nil, NewValidationError("cost price cannot be negative")
	}
	if sellingPrice.IsNegative() {
		return nil, NewValidationError("selling price cannot be negative")
	}
	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Barcode:           barcode,
		Name:              name,
		CostPrice:         costPrice,
		SellingPrice:      sellingPrice,
		CurrentStock:      decimal.Zero,
		MinStock:          decimal.Zero,
		IsActive:          true,
	}, nil
}

// ApplyStockDelta moves the cached stock level by a signed amount
func (p *Product) ApplyStockDelta(delta decimal.Decimal) error {
	next := p.CurrentStock.Add(delta)
	if next.IsNegative() {
		return NewInsufficientStockError(p.ID, delta.Neg(), p.CurrentStock)
	}
	p.CurrentStock = next
	p.UpdatedAt = time.Now()
	return nil
}

// RefreshPrices updates the catalog reference prices from the latest receipt
func (p *Product) RefreshPrices(costPrice, sellingPrice decimal.Decimal) error {
	if costPrice.IsNegative() || sellingPrice.IsNegative() {
		return NewValidationError("prices cannot be negative")
	}
	p.CostPrice = costPrice
	p.SellingPrice = sellingPrice
	p.UpdatedAt = time.Now()
	return nil
}

// IsLowStock reports whether the cached stock has fallen to the reorder floor
func (p *Product) IsLowStock() bool {
	return p.CurrentStock.LessThanOrEqual(p.MinStock)
}
