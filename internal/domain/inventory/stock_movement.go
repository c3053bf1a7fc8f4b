package inventory

import (
	"github.com/google/uuid"
	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MovementType classifies a stock ledger entry
type MovementType string

const (
	MovementTypePurchase   MovementType = "purchase"
	MovementTypeSale       MovementType = "sale"
	MovementTypeAdjustment MovementType = "adjustment"
	MovementTypeReturn     MovementType = "return"
	MovementTypeDamage     MovementType = "damage"
	MovementTypeTransfer   MovementType = "transfer"
	MovementTypeExpired    MovementType = "expired"
)

// IsValid reports whether t is a known movement type
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypePurchase, MovementTypeSale, MovementTypeAdjustment,
		MovementTypeReturn, MovementTypeDamage, MovementTypeTransfer, MovementTypeExpired:
		return true
	}
	return false
}

// StockMovement is one append-only ledger entry. Quantity is signed:
// positive for inbound, negative for outbound, zero for status-change
// audit entries. Every entry snapshots the product stock before and after
// so the ledger replays to the cached stock level.
type StockMovement struct {
	shared.BaseEntity
	ProductID     uuid.UUID       `gorm:"type:uuid;index;not null" json:"product_id"`
	BatchID       *uuid.UUID      `gorm:"type:uuid;index" json:"batch_id,omitempty"`
	MovementType  MovementType    `gorm:"size:16;index;not null" json:"movement_type"`
	Quantity      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	PreviousStock decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"previous_stock"`
	NewStock      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"new_stock"`
	UnitCost      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_cost"`
	Reference     string          `gorm:"size:64;index" json:"reference"`
	Reason        string          `gorm:"size:256" json:"reason"`
	OperatorID    *uuid.UUID      `gorm:"type:uuid" json:"operator_id,omitempty"`
}

// TableName gives the GORM table name
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement builds a ledger entry and enforces conservation:
// newStock must equal previousStock + quantity or construction fails.
func NewStockMovement(productID uuid.UUID, movementType MovementType, quantity, previousStock, newStock decimal.Decimal) (*StockMovement, error) {
	if productID == uuid.Nil {
		return nil, NewValidationError("product id is required")
	}
	if !movementType.IsValid() {
		return nil, NewValidationError("unknown movement type: " + string(movementType))
	}
	if !previousStock.Add(quantity).Equal(newStock) {
		return nil, NewConservationViolationError(previousStock, quantity, newStock)
	}

	return &StockMovement{
		BaseEntity:    shared.NewBaseEntity(),
		ProductID:     productID,
		MovementType:  movementType,
		Quantity:      quantity,
		PreviousStock: previousStock,
		NewStock:      newStock,
		UnitCost:      decimal.Zero,
	}, nil
}

// WithBatch attaches the lot the movement drew on or credited
func (m *StockMovement) WithBatch(batchID uuid.UUID) *StockMovement {
	m.BatchID = &batchID
	return m
}

// WithUnitCost records the per-unit cost basis the movement happened at
func (m *StockMovement) WithUnitCost(cost decimal.Decimal) *StockMovement {
	m.UnitCost = cost
	return m
}

// WithReference links the movement to an external document number
func (m *StockMovement) WithReference(reference string) *StockMovement {
	m.Reference = reference
	return m
}

// WithReason records a human-readable cause, mainly for adjustments
func (m *StockMovement) WithReason(reason string) *StockMovement {
	m.Reason = reason
	return m
}

// WithOperator records who performed the movement
func (m *StockMovement) WithOperator(operatorID uuid.UUID) *StockMovement {
	m.OperatorID = &operatorID
	return m
}

// IsInbound reports whether the entry adds stock
func (m *StockMovement) IsInbound() bool {
	return m.Quantity.IsPositive()
}

// IsOutbound reports whether the entry removes stock
func (m *StockMovement) IsOutbound() bool {
	return m.Quantity.IsNegative()
}

// TotalCost is the absolute quantity priced at the movement's unit cost
func (m *StockMovement) TotalCost() decimal.Decimal {
	return m.Quantity.Abs().Mul(m.UnitCost)
}
