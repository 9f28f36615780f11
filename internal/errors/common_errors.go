package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrTypeInput marks structurally invalid input records, such as a
	// transaction that references an unknown customer.
	ErrTypeInput ErrorType = "INPUT"
	// ErrTypeConfig marks invalid configuration, such as k < 1 or k > N.
	ErrTypeConfig ErrorType = "CONFIG"
	// ErrTypeNumeric marks a numerically degenerate sample.
	ErrTypeNumeric     ErrorType = "NUMERIC_DEGENERACY"
	ErrTypeParsing     ErrorType = "PARSING"
	ErrTypeStorage     ErrorType = "STORAGE"
	ErrTypeValidation  ErrorType = "VALIDATION"
	ErrTypeNotFound    ErrorType = "NOT_FOUND"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// IsType reports whether any error in err's chain is an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	for err != nil {
		if !errors.As(err, &appErr) {
			return false
		}
		if appErr.Type == errType {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// Helper functions for common error types

// NewInputError creates an input error for invalid or inconsistent records
func NewInputError(message string, cause error) *AppError {
	return NewAppError(ErrTypeInput, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewNumericDegeneracyError creates an error describing a constant feature dimension
func NewNumericDegeneracyError(dimension string) *AppError {
	return NewAppError(ErrTypeNumeric, fmt.Sprintf("feature %q is constant across the population", dimension), nil).
		WithContext("dimension", dimension)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}
