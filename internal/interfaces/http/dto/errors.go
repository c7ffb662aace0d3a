package dto

import (
	"net/http"

	"github.com/kitchenops/backend/internal/domain/shared"
)

// Error codes raised by the HTTP layer itself. Domain codes pass through unchanged.
const (
	ErrCodeValidation         = shared.CodeValidation
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeTokenExpired       = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid       = "INVALID_TOKEN"
	ErrCodeTokenRevoked       = "TOKEN_REVOKED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeIdempotencyInUse   = "IDEMPOTENCY_KEY_IN_USE"
	ErrCodeIdempotencyInvalid = "INVALID_IDEMPOTENCY_KEY"
	ErrCodeRequestTooLarge    = "REQUEST_TOO_LARGE"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	shared.CodeNotFound:   http.StatusNotFound,
	shared.CodeValidation: http.StatusBadRequest,

	// Business rule violations -> 422
	shared.CodeNegativeQuantity:   http.StatusUnprocessableEntity,
	shared.CodeCurrencyMismatch:   http.StatusUnprocessableEntity,
	shared.CodeDivideByZero:       http.StatusUnprocessableEntity,
	shared.CodeMissingDensity:     http.StatusUnprocessableEntity,
	shared.CodeMissingPieceWeight: http.StatusUnprocessableEntity,
	shared.CodeInsufficientStock:  http.StatusUnprocessableEntity,

	// State conflicts -> 409
	shared.CodeDataIntegrityMismatch: http.StatusConflict,
	shared.CodeConcurrencyConflict:   http.StatusConflict,
	ErrCodeIdempotencyInUse:          http.StatusConflict,

	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeInvalidJSON:        http.StatusBadRequest,
	ErrCodeIdempotencyInvalid: http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeTokenInvalid:       http.StatusUnauthorized,
	ErrCodeTokenRevoked:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeRequestTooLarge:    http.StatusRequestEntityTooLarge,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeInternal:           http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes are treated as internal errors.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
