package dto

import "net/http"

// Error codes surfaced by the API. Domain errors carry the same codes, so
// translation to HTTP is a single table lookup.
const (
	// ErrCodeInternal is used for unexpected server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeValidation is used when request validation fails
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeAlreadyExists is used when creating a duplicate resource
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	// ErrCodeInvalidTransition is used when an operation is invalid for the current status
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	// ErrCodeInsufficientStock is used when the available pool cannot cover a request
	ErrCodeInsufficientStock = "INSUFFICIENT_STOCK"
	// ErrCodeReconciliationMismatch is used when a return submission does not
	// add up against the outstanding balance
	ErrCodeReconciliationMismatch = "RECONCILIATION_MISMATCH"
	// ErrCodeConcurrencyConflict is used when retries on a contended aggregate are exhausted
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	// ErrCodeOptimisticLockFailed is used when a single optimistic-lock save loses a race
	ErrCodeOptimisticLockFailed = "OPTIMISTIC_LOCK_FAILED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeValidation: http.StatusBadRequest,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,

	// State conflicts -> 409 Conflict
	ErrCodeInvalidTransition:    http.StatusConflict,
	ErrCodeInsufficientStock:    http.StatusConflict,
	ErrCodeConcurrencyConflict:  http.StatusConflict,
	ErrCodeOptimisticLockFailed: http.StatusConflict,

	// The submission is well formed but does not reconcile -> 422
	ErrCodeReconciliationMismatch: http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not mapped.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
