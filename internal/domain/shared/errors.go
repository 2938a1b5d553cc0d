package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes shared across the domain
const (
	CodeNotFound               = "NOT_FOUND"
	CodeAlreadyExists          = "ALREADY_EXISTS"
	CodeValidationError        = "VALIDATION_ERROR"
	CodeInvalidTransition      = "INVALID_TRANSITION"
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeReconciliationMismatch = "RECONCILIATION_MISMATCH"
	CodeConcurrencyConflict    = "CONCURRENCY_CONFLICT"
	CodeOptimisticLockFailed   = "OPTIMISTIC_LOCK_FAILED"
)

// Common domain errors
var (
	ErrNotFound               = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists          = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrValidation             = NewDomainError(CodeValidationError, "Invalid input provided")
	ErrInvalidTransition      = NewDomainError(CodeInvalidTransition, "Operation not allowed in current state")
	ErrInsufficientStock      = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrReconciliationMismatch = NewDomainError(CodeReconciliationMismatch, "Return submission does not match outstanding balance")
	ErrConcurrencyConflict    = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
)

// ErrorCode extracts the domain error code from an error, or empty string
// if the error is not a DomainError.
func ErrorCode(err error) string {
	if de, ok := err.(*DomainError); ok {
		return de.Code
	}
	return ""
}
