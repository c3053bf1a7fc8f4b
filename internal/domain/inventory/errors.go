package inventory

import (
	"github.com/google/uuid"
	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Error codes raised by the inventory domain
const (
	ErrCodeValidation            = "VALIDATION_ERROR"
	ErrCodeInsufficientStock     = "INSUFFICIENT_STOCK"
	ErrCodeInsufficientQuantity  = "INSUFFICIENT_QUANTITY"
	ErrCodeInsufficientAvailable = "INSUFFICIENT_AVAILABLE"
	ErrCodeOverRelease           = "OVER_RELEASE"
	ErrCodeConservationViolation = "CONSERVATION_VIOLATION"
)

// NewValidationError creates a validation error that is rejected before any mutation
func NewValidationError(message string) *shared.DomainError {
	return shared.NewDomainError(ErrCodeValidation, message)
}

// NewInsufficientStockError reports a product-level shortfall so the caller
// can present requested vs. available to the operator
func NewInsufficientStockError(productID uuid.UUID, requested, available decimal.Decimal) *shared.DomainError {
	return shared.NewDomainErrorf(ErrCodeInsufficientStock,
		"insufficient stock for product %s: requested %s, available %s",
		productID, requested, available)
}

// NewInsufficientQuantityError reports a lot-level shortfall on a direct debit
func NewInsufficientQuantityError(batchNumber string, requested, available decimal.Decimal) *shared.DomainError {
	return shared.NewDomainErrorf(ErrCodeInsufficientQuantity,
		"insufficient quantity in batch %s: requested %s, available %s",
		batchNumber, requested, available)
}

// NewInsufficientAvailableError reports that a reservation exceeds the unreserved quantity
func NewInsufficientAvailableError(batchNumber string, requested, available decimal.Decimal) *shared.DomainError {
	return shared.NewDomainErrorf(ErrCodeInsufficientAvailable,
		"cannot reserve %s in batch %s: only %s available",
		requested, batchNumber, available)
}

// NewOverReleaseError reports releasing more reservation than is held
func NewOverReleaseError(batchNumber string, requested, reserved decimal.Decimal) *shared.DomainError {
	return shared.NewDomainErrorf(ErrCodeOverRelease,
		"cannot release %s in batch %s: only %s reserved",
		requested, batchNumber, reserved)
}

// NewConservationViolationError reports a corrupt audit snapshot. This is a
// fatal internal-consistency error: the movement must never be persisted.
func NewConservationViolationError(previous, quantity, next decimal.Decimal) *shared.DomainError {
	return shared.NewDomainErrorf(ErrCodeConservationViolation,
		"stock movement does not conserve quantity: %s + %s != %s",
		previous, quantity, next)
}
