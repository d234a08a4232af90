// Package errors provides structured error handling with context propagation
// and HTTP status code mapping for the authorization core.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of error for metrics and response formatting.
type ErrorType string

const (
	// TypeUnauthenticated indicates no verified principal (HTTP 401).
	TypeUnauthenticated ErrorType = "unauthenticated"
	// TypeMisconfigured indicates a principal whose credential cannot yield a
	// usable security context, e.g. a student with no home school (HTTP 400).
	// Fatal for the request, never silently defaulted.
	TypeMisconfigured ErrorType = "misconfigured"
	// TypePermissionDenied indicates the resource exists but is outside the
	// caller's school or role scope (HTTP 403).
	TypePermissionDenied ErrorType = "permission_denied"
	// TypeNotFound indicates the resource is truly absent (HTTP 404).
	TypeNotFound ErrorType = "not_found"
	// TypeValidation indicates invalid input (HTTP 400).
	TypeValidation ErrorType = "validation"
	// TypeInternal indicates a server-side error (HTTP 500).
	TypeInternal ErrorType = "internal"
	// TypeCollaborator indicates a storage or auth collaborator failure
	// (HTTP 502). Callers usually degrade instead of surfacing this.
	TypeCollaborator ErrorType = "collaborator"
)

// Error represents a structured error with type, message, and context.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for this error type.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeUnauthenticated:
		return http.StatusUnauthorized
	case TypeMisconfigured, TypeValidation:
		return http.StatusBadRequest
	case TypePermissionDenied:
		return http.StatusForbidden
	case TypeNotFound:
		return http.StatusNotFound
	case TypeCollaborator:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Unauthenticated creates a new unauthenticated error (HTTP 401).
func Unauthenticated(message string) *Error {
	return &Error{Type: TypeUnauthenticated, Message: message, Context: make(map[string]any)}
}

// Misconfigured creates a new misconfigured-principal error (HTTP 400).
func Misconfigured(message string) *Error {
	return &Error{Type: TypeMisconfigured, Message: message, Context: make(map[string]any)}
}

// PermissionDenied creates a new permission-denied error (HTTP 403).
func PermissionDenied(message string) *Error {
	return &Error{Type: TypePermissionDenied, Message: message, Context: make(map[string]any)}
}

// NotFound creates a new not-found error (HTTP 404).
func NotFound(message string) *Error {
	return &Error{Type: TypeNotFound, Message: message, Context: make(map[string]any)}
}

// Validation creates a new validation error (HTTP 400).
func Validation(message string) *Error {
	return &Error{Type: TypeValidation, Message: message, Context: make(map[string]any)}
}

// Internal creates a new internal error (HTTP 500).
func Internal(message string, cause error) *Error {
	return &Error{Type: TypeInternal, Message: message, Cause: cause, Context: make(map[string]any)}
}

// Collaborator creates a new collaborator-failure error (HTTP 502).
func Collaborator(message string, cause error) *Error {
	return &Error{Type: TypeCollaborator, Message: message, Cause: cause, Context: make(map[string]any)}
}

// WithContext adds a context field to the error (chainable).
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// ErrorResponse represents the JSON structure sent to clients.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Type    ErrorType      `json:"type"`
	Context map[string]any `json:"context,omitempty"`
}

// ToResponse converts an Error to an ErrorResponse for JSON serialization.
func (e *Error) ToResponse() ErrorResponse {
	return ErrorResponse{Error: e.Message, Type: e.Type, Context: e.Context}
}

// AsStructuredError converts any error into a structured Error. If err is
// already an *Error it is returned unchanged, otherwise it is wrapped as an
// internal error.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}

	var structuredErr *Error
	if errors.As(err, &structuredErr) {
		return structuredErr
	}

	return Internal("internal server error", err)
}

// IsType reports whether err is a structured error of the given type.
func IsType(err error, t ErrorType) bool {
	var structuredErr *Error
	return errors.As(err, &structuredErr) && structuredErr.Type == t
}
