package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the engine.
type ErrorCode string

// Connection-policy and graph validation error codes.
const (
	ErrSelfLoop              ErrorCode = "SELF_LOOP"
	ErrDuplicateEdge         ErrorCode = "DUPLICATE_EDGE"
	ErrEndNodeSaturated      ErrorCode = "END_NODE_SATURATED"
	ErrDelegateMisconnection ErrorCode = "DELEGATE_MISCONNECTION"
	ErrInvalidNodeType       ErrorCode = "INVALID_NODE_TYPE"
	ErrInvalidEdgeKind       ErrorCode = "INVALID_EDGE_KIND"
	ErrInvalidRequest        ErrorCode = "INVALID_REQUEST"
)

// Stale-data error codes. Lookups that miss are warnings, never crashes.
const (
	ErrNodeNotFound      ErrorCode = "NODE_NOT_FOUND"
	ErrEdgeNotFound      ErrorCode = "EDGE_NOT_FOUND"
	ErrWorkflowNotFound  ErrorCode = "WORKFLOW_NOT_FOUND"
	ErrExecutionNotFound ErrorCode = "EXECUTION_NOT_FOUND"
)

// Transport and persistence error codes.
const (
	ErrSaveFailed         ErrorCode = "SAVE_FAILED"
	ErrLoadFailed         ErrorCode = "LOAD_FAILED"
	ErrPollFailed         ErrorCode = "POLL_FAILED"
	ErrUpstreamTimeout    ErrorCode = "UPSTREAM_TIMEOUT"
	ErrServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// Access and internal error codes.
const (
	ErrUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrForbidden     ErrorCode = "FORBIDDEN"
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// AsError extracts the structured error from an error chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsValidation reports whether the error is a connection-policy or request
// validation failure. Validation failures abort the operation and leave the
// graph unchanged.
func IsValidation(err error) bool {
	switch GetErrorCode(err) {
	case ErrSelfLoop, ErrDuplicateEdge, ErrEndNodeSaturated,
		ErrDelegateMisconnection, ErrInvalidNodeType, ErrInvalidEdgeKind,
		ErrInvalidRequest:
		return true
	}
	return false
}

// IsStaleData reports whether the error came from acting on an element that
// no longer exists. Callers treat these as no-ops with a logged warning.
func IsStaleData(err error) bool {
	switch GetErrorCode(err) {
	case ErrNodeNotFound, ErrEdgeNotFound, ErrWorkflowNotFound, ErrExecutionNotFound:
		return true
	}
	return false
}

// IsTransient reports whether the error is a transient transport failure
// that the caller may retry on its normal schedule.
func IsTransient(err error) bool {
	switch GetErrorCode(err) {
	case ErrSaveFailed, ErrLoadFailed, ErrPollFailed,
		ErrUpstreamTimeout, ErrServiceUnavailable:
		return true
	}
	return false
}
