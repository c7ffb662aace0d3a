package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code.
// This lets callers match a detailed error against the sentinel values below.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes
const (
	CodeNotFound              = "NOT_FOUND"
	CodeValidation            = "VALIDATION_ERROR"
	CodeNegativeQuantity      = "NEGATIVE_QUANTITY"
	CodeCurrencyMismatch      = "CURRENCY_MISMATCH"
	CodeDivideByZero          = "DIVIDE_BY_ZERO"
	CodeMissingDensity        = "MISSING_DENSITY"
	CodeMissingPieceWeight    = "MISSING_PIECE_WEIGHT"
	CodeInsufficientStock     = "INSUFFICIENT_STOCK"
	CodeDataIntegrityMismatch = "DATA_INTEGRITY_MISMATCH"
	CodeConcurrencyConflict   = "CONCURRENCY_CONFLICT"
)

// Common domain errors
var (
	ErrNotFound              = NewDomainError(CodeNotFound, "Resource not found")
	ErrValidation            = NewDomainError(CodeValidation, "Validation failed")
	ErrNegativeQuantity      = NewDomainError(CodeNegativeQuantity, "Quantity cannot be negative")
	ErrCurrencyMismatch      = NewDomainError(CodeCurrencyMismatch, "Currency mismatch")
	ErrDivideByZero          = NewDomainError(CodeDivideByZero, "Cannot divide by zero")
	ErrMissingDensity        = NewDomainError(CodeMissingDensity, "Density is required to convert between mass and volume")
	ErrMissingPieceWeight    = NewDomainError(CodeMissingPieceWeight, "Piece weight is required to convert between count and mass or volume")
	ErrInsufficientStock     = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrDataIntegrityMismatch = NewDomainError(CodeDataIntegrityMismatch, "Stock level and batch totals are out of sync")
	ErrConcurrencyConflict   = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
)

// NewValidationError creates a VALIDATION_ERROR with a formatted message
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewNotFoundError creates a NOT_FOUND error naming the missing resource
func NewNotFoundError(resource, id string) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found: %s", resource, id))
}
