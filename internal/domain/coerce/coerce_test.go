package coerce_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/bizboard/internal/domain/coerce"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNumber(t *testing.T) {
	Convey("Given raw numeric cells", t, func() {
		Convey("When the value uses thousands separators and a currency sign", func() {
			d, err := coerce.Number("Auto Wt", " $1,234.50 ")

			Convey("Then it parses exactly", func() {
				So(err, ShouldBeNil)
				So(d.String(), ShouldEqual, "1234.5")
			})
		})

		Convey("When the value is negative", func() {
			d, err := coerce.Number("Value", "-$20")

			Convey("Then Number keeps the sign", func() {
				So(err, ShouldBeNil)
				So(d.String(), ShouldEqual, "-20")
			})

			Convey("And NonNegative rejects it", func() {
				_, err := coerce.NonNegative("Value", "-$20")
				So(errors.Is(err, coerce.ErrNegative), ShouldBeTrue)
			})
		})

		Convey("When the value is empty or garbage", func() {
			_, emptyErr := coerce.Number("Auto Wt", "  ")
			_, badErr := coerce.Number("Auto Wt", "bad")
			_, doubleSign := coerce.Number("Auto Wt", "--5")

			Convey("Then a FieldError names the field and raw input", func() {
				So(errors.Is(emptyErr, coerce.ErrEmpty), ShouldBeTrue)
				So(errors.Is(badErr, coerce.ErrNotNumber), ShouldBeTrue)
				So(errors.Is(doubleSign, coerce.ErrNotNumber), ShouldBeTrue)

				var fe *coerce.FieldError
				So(errors.As(badErr, &fe), ShouldBeTrue)
				So(fe.Field, ShouldEqual, "Auto Wt")
				So(fe.Raw, ShouldEqual, "bad")
				So(badErr.Error(), ShouldContainSubstring, `"bad"`)
			})
		})
	})
}

func TestNumberExponent(t *testing.T) {
	Convey("Given cells in scientific notation", t, func() {
		Convey("When the exponent is modest", func() {
			d, err := coerce.NonNegative("Auto Wt", "1.5E+07")

			Convey("Then it parses", func() {
				So(err, ShouldBeNil)
				So(d.String(), ShouldEqual, "15000000")
			})
		})

		Convey("When the exponent is extreme", func() {
			_, tiny := coerce.NonNegative("Auto Wt", "1e-30000000")
			_, huge := coerce.Number("Value", "1e30000000")

			Convey("Then both are rejected as field errors", func() {
				var fe *coerce.FieldError
				So(errors.As(tiny, &fe), ShouldBeTrue)
				So(fe.Raw, ShouldEqual, "1e-30000000")
				So(errors.Is(tiny, coerce.ErrOutOfRange), ShouldBeTrue)
				So(errors.Is(tiny, coerce.ErrNotNumber), ShouldBeTrue)
				So(errors.Is(huge, coerce.ErrOutOfRange), ShouldBeTrue)
			})
		})
	})
}

func TestDate(t *testing.T) {
	Convey("Given raw date cells", t, func() {
		Convey("When a booking date is DD/MM/YYYY", func() {
			d, err := coerce.Date("CTT Sign Date", "04/03/2021", coerce.BookingDateLayout)

			Convey("Then day comes before month and the zone is UTC", func() {
				So(err, ShouldBeNil)
				So(d, ShouldEqual, time.Date(2021, time.March, 4, 0, 0, 0, 0, time.UTC))
			})
		})

		Convey("When a proposal date is DD-MMM-YYYY", func() {
			d, err := coerce.Date("Start Date", "07-Mar-2021", coerce.ProposalDateLayout)

			Convey("Then the abbreviated month is understood", func() {
				So(err, ShouldBeNil)
				So(d, ShouldEqual, time.Date(2021, time.March, 7, 0, 0, 0, 0, time.UTC))
			})
		})

		Convey("When the layout does not match", func() {
			_, err := coerce.Date("Start Date", "2021-03-07", coerce.ProposalDateLayout)

			Convey("Then ErrBadDate carries the offending string", func() {
				So(errors.Is(err, coerce.ErrBadDate), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "2021-03-07")
			})
		})
	})
}

func TestText(t *testing.T) {
	Convey("Given opaque text cells", t, func() {
		So(coerce.Text("  S "), ShouldEqual, "S")
		So(coerce.Blank(" \t"), ShouldBeTrue)
		So(coerce.Blank("x"), ShouldBeFalse)
	})
}
