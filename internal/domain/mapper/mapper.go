// Package mapper turns decoded spreadsheet rows into bookings and proposals.
package mapper

import (
	"errors"
	"strings"
	"time"

	"github.com/okian/bizboard/internal/domain/coerce"
	"github.com/okian/bizboard/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Func maps one raw row to an entity or a *RowError.
type Func func(row model.RawRow) (model.Entity, error)

// For returns the mapper of a dataset.
func For(d model.Dataset) (Func, error) {
	switch d {
	case model.Bookings:
		return MapBooking, nil
	case model.Proposals:
		return MapProposal, nil
	default:
		return nil, model.ErrUnknownDataset
	}
}

// Specs returns the column specs of a dataset.
func Specs(d model.Dataset) []FieldSpec {
	if d == model.Proposals {
		return ProposalFieldSpecs
	}
	return BookingFieldSpecs
}

// MapBooking maps a bookings row. Auto Wt is required; Auto UnWt and both dates are optional.
func MapBooking(row model.RawRow) (model.Entity, error) {
	r := newCells(row)
	b := &model.Booking{
		InternalID:      r.key(ColInternalID),
		FiscalYear:      r.text(ColYear),
		AccountName:     r.text(ColAccountName),
		OpportunityName: r.text(ColOpportunityName),
		PGI:             r.text(ColPGI),
		WeightedValue:   r.requiredAmount(ColAutoWt),
		UnweightedValue: r.optionalAmount(ColAutoUnWt),
		Stage:           r.text(ColStage),
		SignDate:        r.optionalDate(ColCTTSignDate, coerce.BookingDateLayout),
		StageDate:       r.optionalDate(ColSalesStageDate, coerce.BookingDateLayout),
		Month:           r.text(ColMonth),
		Quarter:         r.text(ColQuarter),
		Segment:         r.text(ColSegment),
		SubSegment:      r.text(ColSubSegment),
		Sector:          r.text(ColSector),
		Country:         r.text(ColCountry),
	}
	if err := r.err(); err != nil {
		return nil, err
	}
	return b, nil
}

// MapProposal maps a proposals row. Only Thor ID is required.
func MapProposal(row model.RawRow) (model.Entity, error) {
	r := newCells(row)
	p := &model.Proposal{
		ThorID:          r.key(ColThorID),
		APNID:           r.text(ColAPNID),
		AccountName:     r.text(ColAccountName),
		OpportunityName: r.text(ColOpportunityName),
		Value:           r.optionalAmount(ColValue),
		COELead:         r.text(ColCOELead),
		Stage:           r.text(ColStage),
		TargetQuarter:   r.text(ColTargetQuarter),
		Segment:         r.text(ColSegment),
		StartDate:       r.optionalDate(ColStartDate, coerce.ProposalDateLayout),
		EndDate:         r.optionalDate(ColEndDate, coerce.ProposalDateLayout),
	}
	if err := r.err(); err != nil {
		return nil, err
	}
	return p, nil
}

// NormalizeHeader lowercases a header and collapses inner whitespace.
func NormalizeHeader(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

// cells reads one row by normalized header and collects field failures.
type cells struct {
	values     map[string]string
	keyValue   string
	missingKey bool
	failures   []*coerce.FieldError
}

func newCells(row model.RawRow) *cells {
	values := make(map[string]string, len(row))
	for h, v := range row {
		values[NormalizeHeader(h)] = v
	}
	return &cells{values: values}
}

func (c *cells) raw(col string) (string, bool) {
	v, ok := c.values[NormalizeHeader(col)]
	if !ok || coerce.Blank(v) {
		return v, false
	}
	return v, true
}

func (c *cells) fail(err error) {
	var fe *coerce.FieldError
	if errors.As(err, &fe) {
		c.failures = append(c.failures, fe)
	}
}

func (c *cells) key(col string) string {
	v, ok := c.raw(col)
	if !ok {
		c.missingKey = true
		c.failures = append(c.failures, &coerce.FieldError{Field: col, Raw: v, Reason: coerce.ErrEmpty})
		return ""
	}
	c.keyValue = coerce.Text(v)
	return c.keyValue
}

func (c *cells) text(col string) string {
	v, _ := c.raw(col)
	return coerce.Text(v)
}

func (c *cells) requiredAmount(col string) decimal.Decimal {
	v, _ := c.raw(col)
	d, err := coerce.NonNegative(col, v)
	if err != nil {
		c.fail(err)
	}
	return d
}

func (c *cells) optionalAmount(col string) decimal.NullDecimal {
	v, ok := c.raw(col)
	if !ok {
		return decimal.NullDecimal{}
	}
	d, err := coerce.NonNegative(col, v)
	if err != nil {
		c.fail(err)
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func (c *cells) optionalDate(col, layout string) *time.Time {
	v, ok := c.raw(col)
	if !ok {
		return nil
	}
	t, err := coerce.Date(col, v, layout)
	if err != nil {
		c.fail(err)
		return nil
	}
	return &t
}

func (c *cells) err() error {
	if len(c.failures) == 0 {
		return nil
	}
	return &RowError{Key: c.keyValue, MissingKey: c.missingKey, Fields: c.failures}
}
