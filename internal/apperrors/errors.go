// Package apperrors defines the coded errors shared by every layer of the
// approvals service. Handlers map codes to HTTP statuses; the core raises
// them synchronously before any network call is attempted.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a class of failure.
type ErrorCode string

const (
	ErrCodeConfiguration ErrorCode = "CONFIGURATION"
	ErrCodeNotEligible   ErrorCode = "NOT_ELIGIBLE"
	ErrCodeTerminalState ErrorCode = "TERMINAL_STATE"
	ErrCodePrecondition  ErrorCode = "PRECONDITION_FAILED"
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal      ErrorCode = "INTERNAL"
)

// Error is a coded application error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a coded error.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap annotates an underlying error with a code and message.
func Wrap(err error, code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Configuration reports an unknown document type or chain setup problem.
func Configuration(message string) *Error {
	return New(ErrCodeConfiguration, message)
}

// NotEligible reports that the acting role is not next in the chain.
func NotEligible(message string) *Error {
	return New(ErrCodeNotEligible, message)
}

// TerminalState reports an action against an already rejected or completed
// document.
func TerminalState(message string) *Error {
	return New(ErrCodeTerminalState, message)
}

// PreconditionFailed reports a pay (or similar) action whose preconditions
// do not hold.
func PreconditionFailed(message string) *Error {
	return New(ErrCodePrecondition, message)
}

// InvalidInput reports a malformed request field.
func InvalidInput(field, message string) *Error {
	return New(ErrCodeInvalidInput, fmt.Sprintf("%s: %s", field, message))
}

// NotFound reports a missing resource.
func NotFound(resource, id string) *Error {
	return New(ErrCodeNotFound, fmt.Sprintf("%s %q not found", resource, id))
}

// CodeOf extracts the ErrorCode from err, or ErrCodeInternal when err is
// not a coded error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// Is lets errors.Is match two coded errors by code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// HTTPStatus maps an error to the status the handler layer should return.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case ErrCodeInvalidInput, ErrCodeConfiguration:
		return http.StatusBadRequest
	case ErrCodeUnauthorized, ErrCodeNotEligible:
		return http.StatusForbidden
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeTerminalState, ErrCodePrecondition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
