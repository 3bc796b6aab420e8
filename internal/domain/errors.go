package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	ErrCodeTimeout             = "TIMEOUT"
	ErrCodeInternalError       = "INTERNAL_ERROR"
	ErrCodeInvalidOperation    = "INVALID_OPERATION"
)

// Validation errors
var (
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrEmptyChunkText       = NewDomainError(ErrCodeValidation, "chunk text cannot be empty")
	ErrEmptyQuery           = NewDomainError(ErrCodeValidation, "query cannot be empty")
	ErrQueryTooLong         = NewDomainError(ErrCodeValidation, "query exceeds maximum length")
	ErrNotPDF               = NewDomainError(ErrCodeValidation, "only PDF files are supported")
	ErrEmptyDocument        = NewDomainError(ErrCodeValidation, "document contains no extractable text")
)

// Not found errors
var (
	ErrChunkNotFound    = NewDomainError(ErrCodeNotFound, "chunk not found")
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "document not found")
)

// Upstream errors. Retrieval failure must not masquerade as "no relevant
// documents", so these propagate to the caller instead of degrading silently.
var (
	ErrStoreUnavailable     = NewDomainError(ErrCodeUpstreamUnavailable, "document store unreachable")
	ErrEmbeddingUnavailable = NewDomainError(ErrCodeUpstreamUnavailable, "embedding provider unreachable")
	ErrGenerationFailed     = NewDomainError(ErrCodeUpstreamUnavailable, "generation provider unreachable")
)
