// Package apperrors defines the structured error taxonomy surfaced by the
// session core. Every failure a caller can see is an *AppError with a stable
// code; field-level server validation maps are preserved for form display.
package apperrors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNetworkUnreachable indicates a transport-level failure (DNS,
	// connection refused, timeout) before any server response was received.
	ErrCodeNetworkUnreachable ErrorCode = "network_unreachable"
	// ErrCodeSessionExpired indicates the refresh flow failed or the retried
	// request was still unauthorized; all session state has been wiped.
	ErrCodeSessionExpired ErrorCode = "session_expired"
	// ErrCodeValidation indicates invalid input, either detected locally or
	// returned by the server with a field-level error map.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeServerError indicates a 5xx or otherwise unclassifiable server failure.
	ErrCodeServerError ErrorCode = "server_error"
	// ErrCodeDuplicateRequest indicates a role request was short-circuited
	// locally because a pending request for the same role already exists.
	ErrCodeDuplicateRequest ErrorCode = "duplicate_request"
	// ErrCodeNotFound indicates the server reported a missing resource.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeParse indicates a response body that could not be interpreted,
	// e.g. an HTML error page where JSON was promised.
	ErrCodeParse ErrorCode = "parse"
	// ErrCodeCanceled indicates the caller's context was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError is a structured error with a code, message, optional field-level
// detail, and optional cause. It supports errors.Is/As via Unwrap.
type AppError struct {
	// Code categorizes the error type.
	Code ErrorCode
	// Message is a human-readable error message.
	Message string
	// Fields maps field names to server-provided error messages, when present.
	Fields map[string][]string
	// HTTPStatus is the originating HTTP status code, when applicable.
	HTTPStatus int
	// Cause is the underlying error (optional).
	Cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches against another *AppError by code, so sentinel-style checks like
// errors.Is(err, apperrors.SessionExpired("")) work across wrapping.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NetworkUnreachable creates a transport-failure error.
func NetworkUnreachable(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeNetworkUnreachable,
		Message: "network unreachable",
		Cause:   cause,
	}
}

// SessionExpired creates a session-expired error.
func SessionExpired(message string) *AppError {
	if message == "" {
		message = "session expired"
	}
	return &AppError{
		Code:    ErrCodeSessionExpired,
		Message: message,
	}
}

// Validation creates a validation error.
func Validation(message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
	}
}

// Validationf creates a validation error with a formatted message.
func Validationf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// ValidationFields creates a validation error carrying a field-error map.
func ValidationFields(message string, fields map[string][]string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Fields:  fields,
	}
}

// ServerError creates a server-failure error.
func ServerError(message string, status int) *AppError {
	if message == "" {
		message = "server error"
	}
	return &AppError{
		Code:       ErrCodeServerError,
		Message:    message,
		HTTPStatus: status,
	}
}

// DuplicateRequest creates a duplicate role-request error.
func DuplicateRequest(role string) *AppError {
	return &AppError{
		Code:    ErrCodeDuplicateRequest,
		Message: fmt.Sprintf("a pending request for role %q already exists", role),
	}
}

// NotFound creates a not-found error.
func NotFound(message string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: message,
	}
}

// Parse creates a response-parse error.
func Parse(message string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeParse,
		Message: message,
		Cause:   cause,
	}
}

// Canceled creates a context-cancellation error.
func Canceled(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeCanceled,
		Message: "request was canceled",
		Cause:   cause,
	}
}

// CodeOf returns the code of err when it is an *AppError, or empty otherwise.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
