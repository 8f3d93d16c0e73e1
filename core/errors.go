// Package core provides the evaluation dataset types and error taxonomy shared by simeval packages.
package core

import "errors"

// Sentinel errors for evaluation operations.
var (
	ErrValidation        = errors.New("validation failed")
	ErrConfig            = errors.New("invalid configuration")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrUnknownPrecision  = errors.New("unknown precision")
)

// ValidationError carries field-level validation context.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
