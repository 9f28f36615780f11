// Package errors defines the error taxonomy used across the bank analytics
// tooling.
//
// Stages report failures as *AppError values typed by ErrorType:
//
//	ErrTypeInput   - records are structurally invalid (unknown customer, empty sample)
//	ErrTypeConfig  - configuration is invalid for the input (k < 1, k > N)
//	ErrTypeNumeric - a feature dimension is constant across the population
//
// None of these are retried. Callers test for a type with IsType:
//
//	if apperrors.IsType(err, apperrors.ErrTypeConfig) {
//	    ...
//	}
//
// The HTTP transport converts errors into APIError responses with FromAppError.
package errors
