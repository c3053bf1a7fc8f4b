package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lotledger/backend/internal/domain/inventory"
)

// CreateBatchRequest represents a single lot receipt
type CreateBatchRequest struct {
	ProductID       uuid.UUID       `json:"product_id" binding:"required"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	CostPrice       decimal.Decimal `json:"cost_price" binding:"required"`
	SellingPrice    decimal.Decimal `json:"selling_price" binding:"required"`
	PurchaseDate    *time.Time      `json:"purchase_date"`
	ExpiryDate      *time.Time      `json:"expiry_date"`
	SupplierID      *uuid.UUID      `json:"supplier_id"`
	PurchaseOrderID *uuid.UUID      `json:"purchase_order_id"`
	Reference       string          `json:"reference"`
	OperatorID      *uuid.UUID      `json:"operator_id"`
}

// BatchResponse represents a lot in API responses
type BatchResponse struct {
	ID               uuid.UUID             `json:"id"`
	BatchNumber      string                `json:"batch_number"`
	ProductID        uuid.UUID             `json:"product_id"`
	InitialQuantity  decimal.Decimal       `json:"initial_quantity"`
	CurrentQuantity  decimal.Decimal       `json:"current_quantity"`
	ReservedQuantity decimal.Decimal       `json:"reserved_quantity"`
	AvailableQty     decimal.Decimal       `json:"available_quantity"`
	CostPrice        decimal.Decimal       `json:"cost_price"`
	SellingPrice     decimal.Decimal       `json:"selling_price"`
	ProfitMargin     decimal.Decimal       `json:"profit_margin"`
	BatchValue       decimal.Decimal       `json:"batch_value"`
	PurchaseDate     time.Time             `json:"purchase_date"`
	ExpiryDate       *time.Time            `json:"expiry_date,omitempty"`
	DaysUntilExpiry  *int                  `json:"days_until_expiry,omitempty"`
	SupplierID       *uuid.UUID            `json:"supplier_id,omitempty"`
	PurchaseOrderID  *uuid.UUID            `json:"purchase_order_id,omitempty"`
	Status           inventory.BatchStatus `json:"status"`
	Version          int                   `json:"version"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// ToBatchResponse maps a lot to its API shape
func ToBatchResponse(b *inventory.Batch) *BatchResponse {
	resp := &BatchResponse{
		ID:               b.ID,
		BatchNumber:      b.BatchNumber,
		ProductID:        b.ProductID,
		InitialQuantity:  b.InitialQuantity,
		CurrentQuantity:  b.CurrentQuantity,
		ReservedQuantity: b.ReservedQuantity,
		AvailableQty:     b.AvailableQuantity(),
		CostPrice:        b.CostPrice,
		SellingPrice:     b.SellingPrice,
		ProfitMargin:     b.ProfitMargin(),
		BatchValue:       b.BatchValue(),
		PurchaseDate:     b.PurchaseDate,
		ExpiryDate:       b.ExpiryDate,
		SupplierID:       b.SupplierID,
		PurchaseOrderID:  b.PurchaseOrderID,
		Status:           b.Status,
		Version:          b.Version,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
	if days, ok := b.DaysUntilExpiry(time.Now()); ok {
		resp.DaysUntilExpiry = &days
	}
	return resp
}

// BatchListFilter represents filter options for lot listings
type BatchListFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=active depleted expired damaged returned"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// SellRequest represents a FIFO sale of one product
type SellRequest struct {
	ProductID  uuid.UUID       `json:"product_id" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required"`
	Reference  string          `json:"reference"`
	OperatorID *uuid.UUID      `json:"operator_id"`
}

// SaleLine is one lot's contribution to a completed sale
type SaleLine struct {
	BatchID      uuid.UUID       `json:"batch_id"`
	BatchNumber  string          `json:"batch_number"`
	Quantity     decimal.Decimal `json:"quantity"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

// SaleResult summarizes a committed sale
type SaleResult struct {
	ProductID           uuid.UUID       `json:"product_id"`
	Reference           string          `json:"reference"`
	Quantity            decimal.Decimal `json:"quantity"`
	Lines               []SaleLine      `json:"lines"`
	TotalCost           decimal.Decimal `json:"total_cost"`
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	Profit              decimal.Decimal `json:"profit"`
	ProfitMargin        decimal.Decimal `json:"profit_margin"`
	AverageCostPrice    decimal.Decimal `json:"average_cost_price"`
	AverageSellingPrice decimal.Decimal `json:"average_selling_price"`
	RemainingStock      decimal.Decimal `json:"remaining_stock"`
}

// AdjustBatchRequest represents a stocktake correction on one lot
type AdjustBatchRequest struct {
	Delta      decimal.Decimal `json:"delta" binding:"required"`
	Reason     string          `json:"reason" binding:"required"`
	OperatorID *uuid.UUID      `json:"operator_id"`
}

// WriteOffRequest removes a lot's remaining quantity from sellable stock
type WriteOffRequest struct {
	Reason     string     `json:"reason"`
	OperatorID *uuid.UUID `json:"operator_id"`
}

// SetStatusRequest applies an administrative status change to one lot
type SetStatusRequest struct {
	Reason     string     `json:"reason"`
	OperatorID *uuid.UUID `json:"operator_id"`
}

// ReserveRequest earmarks lot quantity for later fulfillment
type ReserveRequest struct {
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

// ReceiveLineRequest is one line of a multi-product delivery
type ReceiveLineRequest struct {
	ProductID    uuid.UUID       `json:"product_id" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	CostPrice    decimal.Decimal `json:"cost_price" binding:"required"`
	SellingPrice decimal.Decimal `json:"selling_price" binding:"required"`
	ExpiryDate   *time.Time      `json:"expiry_date"`
}

// ReceiveRequest represents a supplier delivery of several products
type ReceiveRequest struct {
	SupplierID      *uuid.UUID           `json:"supplier_id"`
	PurchaseOrderID *uuid.UUID           `json:"purchase_order_id"`
	Reference       string               `json:"reference"`
	Lines           []ReceiveLineRequest `json:"lines" binding:"required,min=1,dive"`
	OperatorID      *uuid.UUID           `json:"operator_id"`
}

// ReceiveResult lists the lots a delivery created
type ReceiveResult struct {
	Reference string           `json:"reference"`
	Batches   []*BatchResponse `json:"batches"`
}

// MovementResponse represents a ledger entry in API responses
type MovementResponse struct {
	ID            uuid.UUID              `json:"id"`
	ProductID     uuid.UUID              `json:"product_id"`
	BatchID       *uuid.UUID             `json:"batch_id,omitempty"`
	MovementType  inventory.MovementType `json:"movement_type"`
	Quantity      decimal.Decimal        `json:"quantity"`
	PreviousStock decimal.Decimal        `json:"previous_stock"`
	NewStock      decimal.Decimal        `json:"new_stock"`
	UnitCost      decimal.Decimal        `json:"unit_cost"`
	Reference     string                 `json:"reference"`
	Reason        string                 `json:"reason"`
	CreatedAt     time.Time              `json:"created_at"`
}

// ToMovementResponse maps a ledger entry to its API shape
func ToMovementResponse(m *inventory.StockMovement) *MovementResponse {
	return &MovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		BatchID:       m.BatchID,
		MovementType:  m.MovementType,
		Quantity:      m.Quantity,
		PreviousStock: m.PreviousStock,
		NewStock:      m.NewStock,
		UnitCost:      m.UnitCost,
		Reference:     m.Reference,
		Reason:        m.Reason,
		CreatedAt:     m.CreatedAt,
	}
}

// ProductValuation is one product's slice of the stock valuation report
type ProductValuation struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Barcode     string          `json:"barcode"`
	Quantity    decimal.Decimal `json:"quantity"`
	CostValue   decimal.Decimal `json:"cost_value"`
	RetailValue decimal.Decimal `json:"retail_value"`
	BatchCount  int             `json:"batch_count"`
}

// ValuationReport totals the cost basis of everything on hand
type ValuationReport struct {
	GeneratedAt      time.Time          `json:"generated_at"`
	Products         []ProductValuation `json:"products"`
	TotalCostValue   decimal.Decimal    `json:"total_cost_value"`
	TotalRetailValue decimal.Decimal    `json:"total_retail_value"`
}

// ExpiringBatch is one lot in the expiry report
type ExpiringBatch struct {
	Batch           *BatchResponse  `json:"batch"`
	DaysUntilExpiry int             `json:"days_until_expiry"`
	ValueAtRisk     decimal.Decimal `json:"value_at_risk"`
}

// ExpiryReport lists lots expiring inside the requested window
type ExpiryReport struct {
	GeneratedAt      time.Time       `json:"generated_at"`
	WindowDays       int             `json:"window_days"`
	Batches          []ExpiringBatch `json:"batches"`
	TotalValueAtRisk decimal.Decimal `json:"total_value_at_risk"`
}

// CreateProductRequest registers a catalog entry
type CreateProductRequest struct {
	Barcode      string          `json:"barcode" binding:"required"`
	Name         string          `json:"name" binding:"required"`
	Category     string          `json:"category"`
	Unit         string          `json:"unit"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	MinStock     decimal.Decimal `json:"min_stock"`
}

// UpdateProductRequest applies partial catalog changes
type UpdateProductRequest struct {
	Name         *string          `json:"name"`
	Category     *string          `json:"category"`
	Unit         *string          `json:"unit"`
	CostPrice    *decimal.Decimal `json:"cost_price"`
	SellingPrice *decimal.Decimal `json:"selling_price"`
	MinStock     *decimal.Decimal `json:"min_stock"`
	IsActive     *bool            `json:"is_active"`
}

// ProductResponse represents a catalog entry in API responses
type ProductResponse struct {
	ID           uuid.UUID       `json:"id"`
	Barcode      string          `json:"barcode"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Unit         string          `json:"unit"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	MinStock     decimal.Decimal `json:"min_stock"`
	LowStock     bool            `json:"low_stock"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ToProductResponse maps a catalog entry to its API shape
func ToProductResponse(p *inventory.Product) *ProductResponse {
	return &ProductResponse{
		ID:           p.ID,
		Barcode:      p.Barcode,
		Name:         p.Name,
		Category:     p.Category,
		Unit:         p.Unit,
		CostPrice:    p.CostPrice,
		SellingPrice: p.SellingPrice,
		CurrentStock: p.CurrentStock,
		MinStock:     p.MinStock,
		LowStock:     p.IsLowStock(),
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// ProductListFilter represents filter options for catalog listings
type ProductListFilter struct {
	IsActive *bool  `form:"is_active"`
	Category string `form:"category"`
	LowStock bool   `form:"low_stock"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// StockResponse reports a product's stock level and where it was read from
type StockResponse struct {
	ProductID    uuid.UUID       `json:"product_id"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	FromCache    bool            `json:"from_cache"`
}

// ReconcileResult reports drift repair between lots and the cached stock
type ReconcileResult struct {
	ProductID     uuid.UUID       `json:"product_id"`
	PreviousStock decimal.Decimal `json:"previous_stock"`
	BatchTotal    decimal.Decimal `json:"batch_total"`
	Drift         decimal.Decimal `json:"drift"`
	Repaired      bool            `json:"repaired"`
}
