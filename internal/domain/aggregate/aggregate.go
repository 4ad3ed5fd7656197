// Package aggregate folds mapped rows into per-dataset summaries.
//
// An Accumulator is not safe for concurrent use. Parallel workers each keep
// their own and the partials are combined with Merge once every worker drained.
// Sums are exact, so the merge order never changes the result.
package aggregate

import (
	"fmt"

	"github.com/okian/bizboard/internal/domain/model"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Accumulator is the running-total state of one dataset in one run.
type Accumulator interface {
	// Accumulate folds one entity. Entities of another dataset are rejected.
	Accumulate(e model.Entity) error
	// Merge adds another partial of the same dataset into this one.
	Merge(other Accumulator) error
	// Finalize computes the summary. target is the soldPercent denominator and
	// is ignored by datasets that have no target.
	Finalize(target decimal.NullDecimal) model.Summary
}

// New returns a zero accumulator for the dataset.
func New(d model.Dataset) (Accumulator, error) {
	switch d {
	case model.Bookings:
		return &Bookings{}, nil
	case model.Proposals:
		return &Proposals{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownDataset, d)
	}
}

// Bookings sums weighted values, overall and for sold rows.
type Bookings struct {
	total     decimal.Decimal
	totalSold decimal.Decimal
}

// Accumulate implements Accumulator.
func (a *Bookings) Accumulate(e model.Entity) error {
	b, ok := e.(*model.Booking)
	if !ok {
		return fmt.Errorf("%w: %T into bookings", ErrDatasetMismatch, e)
	}
	a.total = a.total.Add(b.WeightedValue)
	if b.Sold() {
		a.totalSold = a.totalSold.Add(b.WeightedValue)
	}
	return nil
}

// Merge implements Accumulator.
func (a *Bookings) Merge(other Accumulator) error {
	o, ok := other.(*Bookings)
	if !ok {
		return fmt.Errorf("%w: %T into bookings", ErrDatasetMismatch, other)
	}
	a.total = a.total.Add(o.total)
	a.totalSold = a.totalSold.Add(o.totalSold)
	return nil
}

// Finalize implements Accumulator. soldPercent is unavailable without a positive target.
func (a *Bookings) Finalize(target decimal.NullDecimal) model.Summary {
	s := &model.BookingsSummary{
		Total:     a.total.InexactFloat64(),
		TotalSold: a.totalSold.InexactFloat64(),
	}
	if target.Valid {
		s.SoldPercent = percent(a.totalSold, target.Decimal)
	}
	return s
}

// Proposals counts rows per stage bucket. Won and Lost are exclusive; both count as completed
// together with Submitted.
type Proposals struct {
	total      int64
	won        int64
	lost       int64
	inProgress int64
	completed  int64
}

// Accumulate implements Accumulator.
func (a *Proposals) Accumulate(e model.Entity) error {
	p, ok := e.(*model.Proposal)
	if !ok {
		return fmt.Errorf("%w: %T into proposals", ErrDatasetMismatch, e)
	}
	a.total++
	switch p.Stage {
	case model.StageInProgress:
		a.inProgress++
	case model.StageWon:
		a.won++
		a.completed++
	case model.StageLost:
		a.lost++
		a.completed++
	case model.StageSubmitted:
		a.completed++
	}
	return nil
}

// Merge implements Accumulator.
func (a *Proposals) Merge(other Accumulator) error {
	o, ok := other.(*Proposals)
	if !ok {
		return fmt.Errorf("%w: %T into proposals", ErrDatasetMismatch, other)
	}
	a.total += o.total
	a.won += o.won
	a.lost += o.lost
	a.inProgress += o.inProgress
	a.completed += o.completed
	return nil
}

// Finalize implements Accumulator. wonPercent is unavailable when nothing was won or lost.
func (a *Proposals) Finalize(_ decimal.NullDecimal) model.Summary {
	return &model.ProposalsSummary{
		Total:           a.total,
		TotalWon:        a.won,
		TotalLost:       a.lost,
		TotalInProgress: a.inProgress,
		TotalCompleted:  a.completed,
		WonPercent:      percent(decimal.NewFromInt(a.won), decimal.NewFromInt(a.won+a.lost)),
	}
}

func percent(num, den decimal.Decimal) model.Ratio {
	if !den.IsPositive() {
		return model.Unavailable
	}
	return model.Ratio{Value: num.Div(den).Mul(hundred).InexactFloat64(), Available: true}
}
