package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/okian/bizboard/internal/adapters/repository"
	"github.com/okian/bizboard/internal/domain/coerce"
	"github.com/okian/bizboard/internal/domain/model"
	"github.com/shopspring/decimal"
)

// ParseTarget accepts the shapes a hand-edited target may take: a JSON number or numeric text.
func ParseTarget(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Zero, fmt.Errorf("%w: target is %v", ErrTarget, t)
		}
		return decimal.NewFromFloat(t), nil
	case float32:
		if f := float64(t); math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, fmt.Errorf("%w: target is %v", ErrTarget, t)
		}
		return decimal.NewFromFloat32(t), nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case json.Number:
		return coerce.Number(model.FieldTarget, t.String())
	case string:
		return coerce.Number(model.FieldTarget, t)
	case nil:
		return decimal.Zero, fmt.Errorf("%w: target is null", ErrTarget)
	default:
		return decimal.Zero, fmt.Errorf("%w: target has type %T", ErrTarget, v)
	}
}

// readTarget loads Constants/bookings.target. Any problem is returned as an issue string and
// leaves the ratio unavailable; it never fails the run.
func readTarget(ctx context.Context, store repository.Store) (decimal.NullDecimal, string) {
	doc, ok, err := store.Get(ctx, model.CollectionConstants, model.ConstantsBookings)
	switch {
	case err != nil:
		return decimal.NullDecimal{}, fmt.Sprintf("target unreadable: %v", err)
	case !ok:
		return decimal.NullDecimal{}, "target document is missing"
	}

	raw, present := doc[model.FieldTarget]
	if !present {
		return decimal.NullDecimal{}, "target field is missing"
	}
	target, err := ParseTarget(raw)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Sprintf("target is not numeric: %v", err)
	}
	if !target.IsPositive() {
		return decimal.NewNullDecimal(target), fmt.Sprintf("target is %s, soldPercent unavailable", target)
	}
	return decimal.NewNullDecimal(target), ""
}
