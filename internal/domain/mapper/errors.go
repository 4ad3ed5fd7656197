package mapper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okian/bizboard/internal/domain/coerce"
)

// Sentinel kinds for mapping errors.
var (
	ErrMissingKey = errors.New("row key is missing")
)

// RowError aggregates every field failure of one row.
type RowError struct {
	// Key is the row identifier when it could be read.
	Key        string
	MissingKey bool
	Fields     []*coerce.FieldError
}

// Error implements error.
func (e *RowError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Error())
	}
	key := e.Key
	if key == "" {
		key = "<no key>"
	}
	return fmt.Sprintf("row %s: %s", key, strings.Join(parts, "; "))
}

// Unwrap exposes the individual field errors, plus ErrMissingKey when the key was absent.
func (e *RowError) Unwrap() []error {
	errs := make([]error, 0, len(e.Fields)+1)
	if e.MissingKey {
		errs = append(errs, ErrMissingKey)
	}
	for _, f := range e.Fields {
		errs = append(errs, f)
	}
	return errs
}
