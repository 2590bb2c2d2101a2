// Package apperror provides domain-specific error types for Linket.
// These errors carry an HTTP status code and a user-safe message; handlers
// map them to JSON responses without leaking store internals.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the base error type for all domain errors. It carries an
// HTTP status code, a machine-readable error type, and a human-readable
// message safe to show to the client.
type AppError struct {
	// Code is the HTTP status code (e.g., 404, 409, 500).
	Code int `json:"-"`

	// Type is a machine-readable error classifier (e.g., "not_found").
	Type string `json:"type"`

	// Message is a human-readable description safe for the client.
	Message string `json:"message"`

	// Internal holds the underlying error for logging. Never exposed to client.
	Internal error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// --- Constructors for the domain taxonomy ---

// NewNotFound creates a 404 error for an unknown token, claim code or assignment.
func NewNotFound(message string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Type:    "not_found",
		Message: message,
	}
}

// NewConflict creates a 409 error for a tag that is already claimed or retired.
func NewConflict(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Type:    "conflict",
		Message: message,
	}
}

// NewForbidden creates a 403 error for callers acting on resources they do not own.
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:    http.StatusForbidden,
		Type:    "forbidden",
		Message: message,
	}
}

// NewInvalidInput creates a 400 error for malformed or out-of-range input.
func NewInvalidInput(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    "invalid_input",
		Message: message,
	}
}

// NewUnauthorized creates a 401 error for missing authentication.
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    "unauthorized",
		Message: message,
	}
}

// NewTooManyRequests creates a 429 error for rate-limited callers.
func NewTooManyRequests(message string) *AppError {
	return &AppError{
		Code:    http.StatusTooManyRequests,
		Type:    "too_many_requests",
		Message: message,
	}
}

var errStoreNotConfigured = errors.New("privileged store credential missing")

// NewUnconfigured creates a 500 error for operations that require the
// privileged store credential when it is not configured.
func NewUnconfigured() *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     "unconfigured",
		Message:  "backend is not configured",
		Internal: errStoreNotConfigured,
	}
}

// NewUpstream creates a 500 error wrapping a data-store failure. The real
// error is kept in Internal for logging; the client sees a generic message.
func NewUpstream(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     "upstream",
		Message:  "an unexpected error occurred",
		Internal: err,
	}
}

// Message returns the client-safe error message from an error. For any
// non-AppError, returns a generic message to prevent leaking internals
// like table names or query structure.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "an unexpected error occurred"
}

// Code returns the HTTP status code from an AppError, or 500 for any other
// error type.
func Code(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
