package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BatchStatus is the lifecycle state of a lot
type BatchStatus string

const (
	BatchStatusActive   BatchStatus = "active"
	BatchStatusDepleted BatchStatus = "depleted"
	BatchStatusExpired  BatchStatus = "expired"
	BatchStatusDamaged  BatchStatus = "damaged"
	BatchStatusReturned BatchStatus = "returned"
)

// IsValid reports whether s is a known lifecycle state
func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusActive, BatchStatusDepleted, BatchStatusExpired, BatchStatusDamaged, BatchStatusReturned:
		return true
	}
	return false
}

// Batch is a received lot of a single product. It is the unit of FIFO
// allocation: each batch carries its own cost basis and optional expiry,
// and the remaining quantity only moves through the methods below so the
// invariants (0 <= reserved <= current <= initial) always hold.
type Batch struct {
	shared.BaseAggregateRoot
	BatchNumber      string          `gorm:"uniqueIndex;size:32;not null" json:"batch_number"`
	ProductID        uuid.UUID       `gorm:"type:uuid;index:idx_batches_fifo,priority:1;not null" json:"product_id"`
	InitialQuantity  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"initial_quantity"`
	CurrentQuantity  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"current_quantity"`
	ReservedQuantity decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"reserved_quantity"`
	CostPrice        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"cost_price"`
	SellingPrice     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"selling_price"`
	PurchaseDate     time.Time       `gorm:"index:idx_batches_fifo,priority:3;not null" json:"purchase_date"`
	ExpiryDate       *time.Time      `gorm:"index" json:"expiry_date,omitempty"`
	SupplierID       *uuid.UUID      `gorm:"type:uuid;index" json:"supplier_id,omitempty"`
	PurchaseOrderID  *uuid.UUID      `gorm:"type:uuid;index" json:"purchase_order_id,omitempty"`
	Status           BatchStatus     `gorm:"size:16;index:idx_batches_fifo,priority:2;not null;default:'active'" json:"status"`
	Notes            string          `gorm:"size:512" json:"notes"`
}

// TableName gives the GORM table name
func (Batch) TableName() string {
	return "batches"
}

// NewBatch creates an active lot from a receipt. Quantity must be at least 1
// and prices must be non-negative; the expiry date, when present, must fall
// after the purchase date.
func NewBatch(productID uuid.UUID, batchNumber string, quantity, costPrice, sellingPrice decimal.Decimal, purchaseDate time.Time, expiryDate *time.Time, supplierID *uuid.UUID) (*Batch, error) {
	if productID == uuid.Nil {
		return nil, NewValidationError("product id is required")
	}
	if batchNumber == "" {
		return nil, NewValidationError("batch number is required")
	}
	if quantity.LessThan(decimal.NewFromInt(1)) {
		return nil, NewValidationError("batch quantity must be at least 1")
	}
	if costPrice.IsNegative() {
		return nil, NewValidationError("cost price cannot be negative")
	}
	if sellingPrice.IsNegative() {
		return nil, NewValidationError("selling price cannot be negative")
	}
	if expiryDate != nil && !expiryDate.After(purchaseDate) {
		return nil, NewValidationError("expiry date must be after purchase date")
	}

	return &Batch{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BatchNumber:       batchNumber,
		ProductID:         productID,
		InitialQuantity:   quantity,
		CurrentQuantity:   quantity,
		ReservedQuantity:  decimal.Zero,
		CostPrice:         costPrice,
		SellingPrice:      sellingPrice,
		PurchaseDate:      purchaseDate,
		ExpiryDate:        expiryDate,
		SupplierID:        supplierID,
		Status:            BatchStatusActive,
	}, nil
}

// Reduce debits quantity from the lot for an outbound movement. Only the
// unreserved portion can be taken: reservations are never consumed or
// clamped here. The lot transitions to depleted when it hits zero.
func (b *Batch) Reduce(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return NewValidationError("reduce quantity must be positive")
	}
	available := b.AvailableQuantity()
	if quantity.GreaterThan(available) {
		return NewInsufficientQuantityError(b.BatchNumber, quantity, available)
	}
	b.CurrentQuantity = b.CurrentQuantity.Sub(quantity)
	if b.CurrentQuantity.IsZero() {
		b.Status = BatchStatusDepleted
	}
	b.UpdatedAt = time.Now()
	return nil
}

// Restore credits quantity back, compensating a failed or returned debit.
// The lot can never exceed its initial quantity.
func (b *Batch) Restore(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return NewValidationError("restore quantity must be positive")
	}
	restored := b.CurrentQuantity.Add(quantity)
	if restored.GreaterThan(b.InitialQuantity) {
		return NewValidationError("restore would exceed initial batch quantity")
	}
	b.CurrentQuantity = restored
	if b.Status == BatchStatusDepleted {
		b.Status = BatchStatusActive
	}
	b.UpdatedAt = time.Now()
	return nil
}

// Reserve earmarks quantity against future fulfillment without debiting it
func (b *Batch) Reserve(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return NewValidationError("reserve quantity must be positive")
	}
	available := b.AvailableQuantity()
	if quantity.GreaterThan(available) {
		return NewInsufficientAvailableError(b.BatchNumber, quantity, available)
	}
	b.ReservedQuantity = b.ReservedQuantity.Add(quantity)
	b.UpdatedAt = time.Now()
	return nil
}

// ReleaseReserved hands back part of an earlier reservation
func (b *Batch) ReleaseReserved(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return NewValidationError("release quantity must be positive")
	}
	if quantity.GreaterThan(b.ReservedQuantity) {
		return NewOverReleaseError(b.BatchNumber, quantity, b.ReservedQuantity)
	}
	b.ReservedQuantity = b.ReservedQuantity.Sub(quantity)
	b.UpdatedAt = time.Now()
	return nil
}

// Adjust applies a signed stocktake correction to the current quantity.
// A negative delta cannot take the lot below its reserved quantity; a
// positive one reactivates a depleted lot.
func (b *Batch) Adjust(delta decimal.Decimal) error {
	if delta.IsZero() {
		return NewValidationError("adjustment delta cannot be zero")
	}
	adjusted := b.CurrentQuantity.Add(delta)
	if adjusted.IsNegative() {
		return NewInsufficientQuantityError(b.BatchNumber, delta.Neg(), b.CurrentQuantity)
	}
	if adjusted.LessThan(b.ReservedQuantity) {
		return NewValidationError("adjustment would drive quantity below reserved")
	}
	if adjusted.GreaterThan(b.InitialQuantity) {
		return NewValidationError("adjustment would exceed initial batch quantity")
	}
	b.CurrentQuantity = adjusted
	switch {
	case b.CurrentQuantity.IsZero():
		b.Status = BatchStatusDepleted
	case b.Status == BatchStatusDepleted:
		b.Status = BatchStatusActive
	}
	b.UpdatedAt = time.Now()
	return nil
}

// SetStatus is a pure administrative transition between active, damaged,
// returned, and expired. Quantities are untouched, and a depleted lot can
// only leave that state through a positive adjustment.
func (b *Batch) SetStatus(status BatchStatus) error {
	if !status.IsValid() {
		return NewValidationError("unknown batch status: " + string(status))
	}
	if status == BatchStatusDepleted {
		return NewValidationError("depleted is reached by draining the lot, not by assignment")
	}
	if b.Status == BatchStatusDepleted {
		return shared.NewDomainError("INVALID_STATE",
			"a depleted lot needs a positive adjustment before a status change")
	}
	b.Status = status
	b.UpdatedAt = time.Now()
	return nil
}

// WriteOff removes everything left in the lot from sellable stock and
// marks it expired, damaged, or returned. Reservations do not survive a
// write-off since the goods are physically gone.
func (b *Batch) WriteOff(status BatchStatus) (decimal.Decimal, error) {
	switch status {
	case BatchStatusExpired, BatchStatusDamaged, BatchStatusReturned:
	default:
		return decimal.Zero, NewValidationError("write-off status must be expired, damaged, or returned")
	}
	if b.Status == BatchStatusDepleted {
		return decimal.Zero, shared.NewDomainError("INVALID_STATE",
			"a depleted lot has nothing left to write off")
	}
	removed := b.CurrentQuantity
	b.CurrentQuantity = decimal.Zero
	b.ReservedQuantity = decimal.Zero
	b.Status = status
	b.UpdatedAt = time.Now()
	return removed, nil
}

// AvailableQuantity is what can still be reserved or sold ahead of
// reservations
func (b *Batch) AvailableQuantity() decimal.Decimal {
	return b.CurrentQuantity.Sub(b.ReservedQuantity)
}

// IsExpired reports whether the lot's expiry date has passed as of now
func (b *Batch) IsExpired(now time.Time) bool {
	return b.ExpiryDate != nil && !b.ExpiryDate.After(now)
}

// ExpiresWithin reports whether the lot expires inside the given window.
// Already-expired lots count as expiring.
func (b *Batch) ExpiresWithin(now time.Time, window time.Duration) bool {
	if b.ExpiryDate == nil {
		return false
	}
	return !b.ExpiryDate.After(now.Add(window))
}

// DaysUntilExpiry returns whole days until expiry, negative when past due.
// The second return is false when the lot has no expiry date.
func (b *Batch) DaysUntilExpiry(now time.Time) (int, bool) {
	if b.ExpiryDate == nil {
		return 0, false
	}
	hours := b.ExpiryDate.Sub(now).Hours()
	days := int(hours / 24)
	if hours < 0 && hours != float64(days)*24 {
		days--
	}
	return days, true
}

// IsAllocatable reports whether the FIFO planner may draw on this lot.
// Reserved quantity is off the table, so a fully reserved lot is skipped.
func (b *Batch) IsAllocatable(now time.Time) bool {
	return b.Status == BatchStatusActive &&
		b.AvailableQuantity().IsPositive() &&
		!b.IsExpired(now)
}

// ProfitMargin is (selling - cost) / selling. Zero selling price yields zero.
func (b *Batch) ProfitMargin() decimal.Decimal {
	if b.SellingPrice.IsZero() {
		return decimal.Zero
	}
	return b.SellingPrice.Sub(b.CostPrice).Div(b.SellingPrice)
}

// BatchValue is the cost basis of what remains in the lot
func (b *Batch) BatchValue() decimal.Decimal {
	return b.CurrentQuantity.Mul(b.CostPrice)
}
