package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DomainErrorType represents the category of domain error
type DomainErrorType string

const (
	// DomainValidationError indicates input validation failure
	DomainValidationError DomainErrorType = "VALIDATION_ERROR"

	// DomainBusinessRuleError indicates a business rule violation
	DomainBusinessRuleError DomainErrorType = "BUSINESS_RULE_ERROR"

	// DomainNotFoundError indicates a resource was not found
	DomainNotFoundError DomainErrorType = "NOT_FOUND"

	// DomainConflictError indicates a conflict with existing state
	DomainConflictError DomainErrorType = "CONFLICT"

	// DomainInvariantError indicates an internal invariant was broken
	DomainInvariantError DomainErrorType = "INVARIANT_ERROR"

	// DomainExternalError indicates the backend collaborator failed
	DomainExternalError DomainErrorType = "EXTERNAL_ERROR"
)

// DomainError represents a domain-specific error with rich context
type DomainError struct {
	Type       DomainErrorType        `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Retryable  bool                   `json:"retryable"`
	StatusCode int                    `json:"status_code"`
}

// NewDomainError creates a new domain error
func NewDomainError(errorType DomainErrorType, code string, message string) *DomainError {
	return &DomainError{
		Type:       errorType,
		Code:       code,
		Message:    message,
		Details:    make(map[string]interface{}),
		StatusCode: domainErrorTypeToStatusCode(errorType),
	}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Type, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

// Clone copies the error so the shared sentinels below are never mutated.
func (e *DomainError) Clone() *DomainError {
	c := *e
	c.Details = make(map[string]interface{}, len(e.Details))
	for k, v := range e.Details {
		c.Details[k] = v
	}
	return &c
}

// WithCause adds a cause to the error
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithMessage replaces the human-readable message
func (e *DomainError) WithMessage(message string) *DomainError {
	e.Message = message
	return e
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	e.Details[key] = value
	return e
}

// WithRetryable sets whether the error is retryable
func (e *DomainError) WithRetryable(retryable bool) *DomainError {
	e.Retryable = retryable
	return e
}

// Is matches on type and code, so clones compare equal to their sentinel
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// Unwrap returns the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Cause
}

func domainErrorTypeToStatusCode(errorType DomainErrorType) int {
	switch errorType {
	case DomainValidationError:
		return http.StatusBadRequest
	case DomainBusinessRuleError:
		return http.StatusUnprocessableEntity
	case DomainNotFoundError:
		return http.StatusNotFound
	case DomainConflictError:
		return http.StatusConflict
	case DomainExternalError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

var (
	ErrNodeNotFound = NewDomainError(
		DomainNotFoundError,
		"NODE_NOT_FOUND",
		"The requested node does not exist",
	)

	ErrDuplicateName = NewDomainError(
		DomainConflictError,
		"DUPLICATE_NAME",
		"A sibling with this name already exists",
	)

	ErrProtectedNode = NewDomainError(
		DomainBusinessRuleError,
		"PROTECTED_NODE",
		"The base node cannot be deleted, retyped or reparented",
	)

	ErrDanglingReference = NewDomainError(
		DomainInvariantError,
		"DANGLING_REFERENCE",
		"A node references a parent that does not exist",
	)

	ErrInvariantViolation = NewDomainError(
		DomainInvariantError,
		"INVARIANT_VIOLATION",
		"The tree is in an inconsistent state",
	)

	ErrNodeExists = NewDomainError(
		DomainConflictError,
		"NODE_EXISTS",
		"A node with this id already exists",
	)

	ErrInvalidLabel = NewDomainError(
		DomainValidationError,
		"INVALID_LABEL",
		"Node label is invalid",
	)

	ErrUnsupportedChild = NewDomainError(
		DomainValidationError,
		"UNSUPPORTED_CHILD",
		"This node cannot receive children of the requested kind",
	)

	ErrTreeLimitExceeded = NewDomainError(
		DomainBusinessRuleError,
		"TREE_LIMIT_EXCEEDED",
		"Maximum number of nodes in the tree exceeded",
	)

	ErrEmptySelection = NewDomainError(
		DomainValidationError,
		"EMPTY_SELECTION",
		"The operation requires at least one selected node",
	)

	ErrOperationInFlight = NewDomainError(
		DomainConflictError,
		"OPERATION_IN_FLIGHT",
		"Another operation on this node has not finished yet",
	).WithRetryable(true)

	ErrNotSynchronized = NewDomainError(
		DomainBusinessRuleError,
		"NOT_SYNCHRONIZED",
		"The node has no backend record yet; reload and retry",
	)

	ErrBackend = NewDomainError(
		DomainExternalError,
		"BACKEND_ERROR",
		"The backend request failed",
	)
)

// NewDuplicateNameError reports a sibling label clash
func NewDuplicateNameError(label string) *DomainError {
	return ErrDuplicateName.Clone().
		WithMessage(fmt.Sprintf("a sibling named %q already exists", label)).
		WithDetail("label", label)
}

// NewNodeNotFoundError reports an unknown node id
func NewNodeNotFoundError(id fmt.Stringer) *DomainError {
	return ErrNodeNotFound.Clone().
		WithMessage(fmt.Sprintf("node %s does not exist", id)).
		WithDetail("node_id", id.String())
}

// NewInvalidLabelError reports a label rejected by validation
func NewInvalidLabelError(reason string) *DomainError {
	return ErrInvalidLabel.Clone().WithMessage(reason)
}

// NewBackendError wraps a backend collaborator failure with a readable message
func NewBackendError(operation string, message string, cause error) *DomainError {
	if message == "" {
		message = fmt.Sprintf("backend operation %q failed", operation)
	}
	return ErrBackend.Clone().
		WithMessage(message).
		WithDetail("operation", operation).
		WithCause(cause)
}

// GetDomainError extracts a DomainError from an error chain
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// IsDomainType checks the category of a domain error in the chain
func IsDomainType(err error, errorType DomainErrorType) bool {
	d := GetDomainError(err)
	return d != nil && d.Type == errorType
}

// ValidationErrors aggregates multiple validation errors
type ValidationErrors struct {
	Errors []*DomainError `json:"errors"`
}

// NewValidationErrors creates a new validation errors collection
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make([]*DomainError, 0),
	}
}

// Add adds a validation error
func (v *ValidationErrors) Add(field string, message string) {
	err := NewDomainError(DomainValidationError, "FIELD_VALIDATION_ERROR", message).
		WithDetail("field", field)
	v.Errors = append(v.Errors, err)
}

// HasErrors returns true if there are validation errors
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Error implements the error interface
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}

	messages := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		messages[i] = err.Message
	}
	return fmt.Sprintf("Validation failed: %s", strings.Join(messages, "; "))
}

// ErrOrNil returns nil when nothing was collected
func (v *ValidationErrors) ErrOrNil() error {
	if !v.HasErrors() {
		return nil
	}
	return v
}
