package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Predefined error types for common scenarios
var (
	ErrInvalidParameter   = New(http.StatusBadRequest, "INVALID_PARAMETER", "Invalid parameter value")
	ErrNotFound           = New(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrInternalServer     = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
	ErrServiceUnavailable = New(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Service temporarily unavailable")
)

// InvalidParameter creates an invalid parameter error naming the parameter
func InvalidParameter(name string, err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, "INVALID_PARAMETER",
		fmt.Sprintf("Invalid value for %s", name), err.Error())
}

// NotFoundError creates a not found error with details
func NotFoundError(resource string) *APIError {
	return NewWithDetails(http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("%s not found", resource), resource)
}

// FromAppError maps an AppError onto the HTTP status that describes it
func FromAppError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		return NewWithDetails(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error", err.Error())
	}

	switch appErr.Type {
	case ErrTypeNotFound:
		return New(http.StatusNotFound, "NOT_FOUND", appErr.Message)
	case ErrTypeInput, ErrTypeValidation, ErrTypeParsing:
		return NewWithDetails(http.StatusUnprocessableEntity, string(appErr.Type), appErr.Message, appErr.Context)
	case ErrTypeConfig:
		return NewWithDetails(http.StatusServiceUnavailable, string(appErr.Type), appErr.Message, appErr.Context)
	default:
		return NewWithDetails(http.StatusInternalServerError, string(appErr.Type), appErr.Message, appErr.Context)
	}
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *APIError `json:"error"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(err *APIError) *ErrorResponse {
	return &ErrorResponse{
		Success: false,
		Error:   err,
	}
}

// Render implements the render.Renderer interface
func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return e.Error.Render(w, r)
}

// WriteError renders an error response through chi/render
func WriteError(w http.ResponseWriter, r *http.Request, err *APIError) {
	_ = render.Render(w, r, NewErrorResponse(err))
}
