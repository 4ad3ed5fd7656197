package mapper_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/bizboard/internal/domain/coerce"
	"github.com/okian/bizboard/internal/domain/mapper"
	"github.com/okian/bizboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMapBooking(t *testing.T) {
	Convey("Given a bookings row", t, func() {
		Convey("When every field is well formed and headers are sloppy", func() {
			row := model.RawRow{
				" internal  ID ":   "A-1",
				"Auto Wt":          "1,000",
				"AUTO UNWT":        "2000",
				"Stage":            "S",
				"CTT Sign Date":    "15/06/2021",
				"Sales Stage Date": "",
				"Country":          " NZ ",
			}

			e, err := mapper.MapBooking(row)

			Convey("Then a booking is produced with absent optionals left empty", func() {
				So(err, ShouldBeNil)
				b, ok := e.(*model.Booking)
				So(ok, ShouldBeTrue)
				So(b.Key(), ShouldEqual, "A-1")
				So(b.WeightedValue.String(), ShouldEqual, "1000")
				So(b.UnweightedValue.Valid, ShouldBeTrue)
				So(*b.SignDate, ShouldEqual, time.Date(2021, time.June, 15, 0, 0, 0, 0, time.UTC))
				So(b.StageDate, ShouldBeNil)
				So(b.Country, ShouldEqual, "NZ")
				So(b.Sold(), ShouldBeTrue)
			})
		})

		Convey("When the weighted value is not numeric", func() {
			_, err := mapper.MapBooking(model.RawRow{"Internal ID": "C", "Auto Wt": "bad", "Stage": "S"})

			Convey("Then the row fails naming the field", func() {
				var rowErr *mapper.RowError
				So(errors.As(err, &rowErr), ShouldBeTrue)
				So(rowErr.Key, ShouldEqual, "C")
				So(rowErr.Fields, ShouldHaveLength, 1)
				So(rowErr.Fields[0].Field, ShouldEqual, mapper.ColAutoWt)
				So(errors.Is(err, coerce.ErrNotNumber), ShouldBeTrue)
			})
		})

		Convey("When the weighted value has an extreme exponent", func() {
			_, err := mapper.MapBooking(model.RawRow{"Internal ID": "A", "Auto Wt": "1e-30000000", "Stage": "S"})

			Convey("Then the row is rejected before it reaches any total", func() {
				var rowErr *mapper.RowError
				So(errors.As(err, &rowErr), ShouldBeTrue)
				So(rowErr.Key, ShouldEqual, "A")
				So(errors.Is(err, coerce.ErrOutOfRange), ShouldBeTrue)
			})
		})

		Convey("When several fields are bad and the key is missing", func() {
			_, err := mapper.MapBooking(model.RawRow{
				"Auto Wt":       "-5",
				"Auto UnWt":     "x",
				"CTT Sign Date": "2021-06-15",
			})

			Convey("Then every failure is reported, not just the first", func() {
				var rowErr *mapper.RowError
				So(errors.As(err, &rowErr), ShouldBeTrue)
				So(rowErr.MissingKey, ShouldBeTrue)
				So(rowErr.Fields, ShouldHaveLength, 4)
				So(errors.Is(err, mapper.ErrMissingKey), ShouldBeTrue)
				So(errors.Is(err, coerce.ErrNegative), ShouldBeTrue)
				So(errors.Is(err, coerce.ErrBadDate), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "<no key>")
			})
		})

		Convey("When the weighted value is absent", func() {
			_, err := mapper.MapBooking(model.RawRow{"Internal ID": "D"})

			Convey("Then it is a failure, never zero", func() {
				So(errors.Is(err, coerce.ErrEmpty), ShouldBeTrue)
			})
		})
	})
}

func TestMapProposal(t *testing.T) {
	Convey("Given a proposals row", t, func() {
		Convey("When only the key is present", func() {
			e, err := mapper.MapProposal(model.RawRow{"Thor ID": "T-9"})

			Convey("Then the proposal maps with every optional absent", func() {
				So(err, ShouldBeNil)
				p := e.(*model.Proposal)
				So(p.ThorID, ShouldEqual, "T-9")
				So(p.Value.Valid, ShouldBeFalse)
				So(p.StartDate, ShouldBeNil)
			})
		})

		Convey("When dates use the abbreviated month layout", func() {
			e, err := mapper.MapProposal(model.RawRow{
				"Thor ID":    "T-1",
				"Value":      "$2,500.75",
				"Stage":      "Won",
				"Start Date": "01-Feb-2022",
				"End Date":   "28-Feb-2022",
			})

			Convey("Then they parse in UTC", func() {
				So(err, ShouldBeNil)
				p := e.(*model.Proposal)
				So(p.Value.Decimal.String(), ShouldEqual, "2500.75")
				So(*p.EndDate, ShouldEqual, time.Date(2022, time.February, 28, 0, 0, 0, 0, time.UTC))
			})
		})

		Convey("When the key is blank", func() {
			_, err := mapper.MapProposal(model.RawRow{"Thor ID": "   ", "Stage": "Won"})

			Convey("Then the row is rejected", func() {
				So(errors.Is(err, mapper.ErrMissingKey), ShouldBeTrue)
			})
		})
	})
}

func TestFor(t *testing.T) {
	Convey("Given a dataset", t, func() {
		f, err := mapper.For(model.Proposals)
		So(err, ShouldBeNil)
		So(f, ShouldNotBeNil)
		So(mapper.Specs(model.Proposals)[0].Name, ShouldEqual, mapper.ColThorID)

		_, err = mapper.For(model.Dataset("other"))
		So(errors.Is(err, model.ErrUnknownDataset), ShouldBeTrue)
	})
}
