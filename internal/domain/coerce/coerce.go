// Package coerce converts raw spreadsheet cells into typed values.
//
// Every function is pure: it either returns a value or a *FieldError naming the
// field and the offending input. Bad input never degrades to zero.
package coerce

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Date layouts used by the exports.
const (
	// BookingDateLayout is DD/MM/YYYY.
	BookingDateLayout = "2/1/2006"
	// ProposalDateLayout is DD-MMM-YYYY, e.g. 07-Mar-2021.
	ProposalDateLayout = "2-Jan-2006"
)

// maxExponent bounds the decimal exponent of a parsed number. Sums rescale to the
// smallest exponent seen, so "1e-30000000" would make every later addition huge.
const maxExponent = 32

// Blank reports whether a raw cell carries no value.
func Blank(raw string) bool {
	return strings.TrimSpace(raw) == ""
}

// Text trims surrounding whitespace from an opaque string cell.
func Text(raw string) string {
	return strings.TrimSpace(raw)
}

// Number parses a decimal number. Thousands separators and a leading "$" are tolerated.
func Number(field, raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, &FieldError{Field: field, Raw: raw, Reason: ErrEmpty}
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(s[1:])
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s[0] == '-' || s[0] == '+' {
		return decimal.Zero, &FieldError{Field: field, Raw: raw, Reason: ErrNotNumber}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &FieldError{Field: field, Raw: raw, Reason: ErrNotNumber}
	}
	if exp := d.Exponent(); exp < -maxExponent || exp > maxExponent {
		return decimal.Zero, &FieldError{Field: field, Raw: raw, Reason: ErrOutOfRange}
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// NonNegative parses a number and rejects values below zero.
func NonNegative(field, raw string) (decimal.Decimal, error) {
	d, err := Number(field, raw)
	if err != nil {
		return d, err
	}
	if d.IsNegative() {
		return decimal.Zero, &FieldError{Field: field, Raw: raw, Reason: ErrNegative}
	}
	return d, nil
}

// Date parses raw against layout in UTC.
func Date(field, raw, layout string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, &FieldError{Field: field, Raw: raw, Reason: ErrEmpty}
	}
	t, err := time.ParseInLocation(layout, s, time.UTC)
	if err != nil {
		return time.Time{}, &FieldError{Field: field, Raw: raw, Reason: ErrBadDate}
	}
	return t, nil
}
