// pkg/errors/errors.go
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error types
const (
	ErrValidation     = "VALIDATION_ERROR"
	ErrNotFound       = "NOT_FOUND"
	ErrUnauthorized   = "UNAUTHORIZED"
	ErrInternalServer = "INTERNAL_SERVER_ERROR"
	ErrBadRequest     = "BAD_REQUEST"
	ErrUnavailable    = "SERVICE_UNAVAILABLE"
)

// AppError represents a custom application error
type AppError struct {
	Type       string `json:"type"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// NewAppError creates a new AppError
func NewAppError(errorType string, statusCode int, message string, details ...string) *AppError {
	var detail string
	if len(details) > 0 {
		detail = details[0]
	}

	return &AppError{
		Type:       errorType,
		StatusCode: statusCode,
		Message:    message,
		Details:    detail,
	}
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetErrorType extracts the error type from an error
func GetErrorType(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// GetStatusCode extracts the status code from an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

func NewValidationError(message string) *AppError {
	return NewAppError(ErrValidation, http.StatusBadRequest, "validation failed: "+message)
}

func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrNotFound, http.StatusNotFound, resource+" not found")
}

func NewUnauthorizedError(message string) *AppError {
	return NewAppError(ErrUnauthorized, http.StatusUnauthorized, message)
}

func NewAuditDisabledError() *AppError {
	return NewAppError(ErrUnavailable, http.StatusServiceUnavailable, "verification audit log is not configured")
}
