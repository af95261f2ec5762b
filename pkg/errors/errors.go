package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the base interface for all client errors
type AppError interface {
	error
	HTTPStatus() int
	Code() string
}

// AuthExpiredError means the session lapsed or was absent on a privileged
// call. It is never retried; the session manager handles the redirect.
type AuthExpiredError struct {
	Detail string
}

func (e *AuthExpiredError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("session expired: %s", e.Detail)
	}
	return "session expired"
}

func (e *AuthExpiredError) HTTPStatus() int { return http.StatusUnauthorized }
func (e *AuthExpiredError) Code() string    { return "AUTH_EXPIRED" }

// NewAuthExpiredError creates a new AuthExpiredError
func NewAuthExpiredError(detail string) *AuthExpiredError {
	return &AuthExpiredError{Detail: detail}
}

// PermissionError means the user is authenticated but disallowed
type PermissionError struct {
	Detail string
}

func (e *PermissionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("permission denied: %s", e.Detail)
	}
	return "permission denied"
}

func (e *PermissionError) HTTPStatus() int { return http.StatusForbidden }
func (e *PermissionError) Code() string    { return "PERMISSION_DENIED" }

// NotFoundError represents a resource that was not found
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) HTTPStatus() int { return http.StatusNotFound }
func (e *NotFoundError) Code() string    { return "NOT_FOUND" }

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a payload the server rejected. Detail carries
// the parsed response body so consumers can surface field-keyed messages.
type ValidationError struct {
	Message string
	Detail  map[string]interface{}
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return "validation failed"
}

func (e *ValidationError) HTTPStatus() int { return http.StatusBadRequest }
func (e *ValidationError) Code() string    { return "VALIDATION_ERROR" }

// FieldDetail returns the server message for one field, if present
func (e *ValidationError) FieldDetail(field string) string {
	if e.Detail == nil {
		return ""
	}
	switch v := e.Detail[field].(type) {
	case string:
		return v
	case []interface{}:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

// NewValidationError creates a new ValidationError
func NewValidationError(message string, detail map[string]interface{}) *ValidationError {
	return &ValidationError{Message: message, Detail: detail}
}

// ServerError represents a 5xx from the backend
type ServerError struct {
	Status int
	Body   string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Body)
}

func (e *ServerError) HTTPStatus() int { return e.Status }
func (e *ServerError) Code() string    { return "SERVER_ERROR" }

// NetworkError represents a transport-level failure before any response
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error   { return e.Err }
func (e *NetworkError) HTTPStatus() int { return 0 }
func (e *NetworkError) Code() string    { return "NETWORK_ERROR" }

// ClientConstraintError represents a local pre-flight failure that never
// reaches the network (missing CSRF token, oversized file, empty required
// field).
type ClientConstraintError struct {
	Message string
}

func (e *ClientConstraintError) Error() string { return e.Message }

func (e *ClientConstraintError) HTTPStatus() int { return 0 }
func (e *ClientConstraintError) Code() string    { return "CLIENT_CONSTRAINT" }

// NewClientConstraintError creates a new ClientConstraintError
func NewClientConstraintError(message string) *ClientConstraintError {
	return &ClientConstraintError{Message: message}
}

// IsAuthExpired reports whether err is (or wraps) an AuthExpiredError
func IsAuthExpired(err error) bool {
	var target *AuthExpiredError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
