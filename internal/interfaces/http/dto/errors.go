package dto

import "net/http"

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeValidation is used when input fails domain validation
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "INVALID_INPUT"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "INVALID_STATE"
	// ErrCodeInsufficientStock is used when a sale exceeds sellable stock
	ErrCodeInsufficientStock = "INSUFFICIENT_STOCK"
	// ErrCodeInsufficientQuantity is used when a lot debit exceeds its quantity
	ErrCodeInsufficientQuantity = "INSUFFICIENT_QUANTITY"
	// ErrCodeInsufficientAvailable is used when a reservation exceeds available quantity
	ErrCodeInsufficientAvailable = "INSUFFICIENT_AVAILABLE"
	// ErrCodeOverRelease is used when a release exceeds the reserved quantity
	ErrCodeOverRelease = "OVER_RELEASE"
	// ErrCodeConcurrentModification is used when optimistic locking fails
	ErrCodeConcurrentModification = "CONCURRENT_MODIFICATION"
	// ErrCodeConservationViolation is used when a ledger entry fails the
	// previous + delta = new check
	ErrCodeConservationViolation = "CONSERVATION_VIOLATION"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:      http.StatusInternalServerError,
	ErrCodeBadRequest:    http.StatusBadRequest,
	ErrCodeValidation:    http.StatusBadRequest,
	ErrCodeInvalidInput:  http.StatusBadRequest,
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:          http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock:     http.StatusUnprocessableEntity,
	ErrCodeInsufficientQuantity:  http.StatusUnprocessableEntity,
	ErrCodeInsufficientAvailable: http.StatusUnprocessableEntity,
	ErrCodeOverRelease:           http.StatusUnprocessableEntity,

	// Conflicts -> 409
	ErrCodeConcurrentModification: http.StatusConflict,

	// A conservation violation means a bug on our side, not bad input
	ErrCodeConservationViolation: http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500 Internal Server Error.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
