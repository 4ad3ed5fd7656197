package coerce

import (
	"errors"
	"fmt"
)

// Sentinel reasons a raw cell can fail coercion.
var (
	ErrEmpty     = errors.New("value is empty")
	ErrNotNumber = errors.New("value is not a number")
	ErrNegative  = errors.New("value must not be negative")
	ErrBadDate   = errors.New("value does not match the date layout")

	// ErrOutOfRange wraps ErrNotNumber so callers matching on it keep working.
	ErrOutOfRange = fmt.Errorf("%w: exponent out of range", ErrNotNumber)
)

// FieldError describes a single cell that could not be coerced.
type FieldError struct {
	Field  string
	Raw    string
	Reason error
}

// Error implements error.
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v (raw %q)", e.Field, e.Reason, e.Raw)
}

// Unwrap exposes the reason so callers can use errors.Is.
func (e *FieldError) Unwrap() error { return e.Reason }
