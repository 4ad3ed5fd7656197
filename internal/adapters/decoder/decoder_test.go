package decoder_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/okian/bizboard/internal/adapters/decoder"
	"github.com/okian/bizboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"
)

// workbook builds an xlsx with rows written from A1 of the first sheet.
func workbook(rows [][]any) []byte {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := r
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			panic(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func drain(s decoder.RowStream) ([]model.RawRow, []int, error) {
	var rows []model.RawRow
	var pos []int
	for {
		r, err := s.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return rows, pos, nil
		}
		if err != nil {
			return rows, pos, err
		}
		rows = append(rows, r)
		pos = append(pos, s.Position())
	}
}

func TestExcelDecoder(t *testing.T) {
	Convey("Given the Excel decoder", t, func() {
		d := decoder.NewExcel()
		ctx := context.Background()

		Convey("When the sheet has a header, blank rows and short rows", func() {
			data := workbook([][]any{
				{""},
				{" Internal ID ", "Auto Wt", "Stage"},
				{"A", "100", "S"},
				{"", "", ""},
				{"B", "50"},
				{"C", "bad", "S"},
			})

			s, err := d.Open(ctx, bytes.NewReader(data), int64(len(data)))
			So(err, ShouldBeNil)
			defer func() { _ = s.Close() }()

			rows, pos, err := drain(s)

			Convey("Then rows come back keyed by header in sheet order", func() {
				So(err, ShouldBeNil)
				So(s.Headers(), ShouldResemble, []string{"Internal ID", "Auto Wt", "Stage"})
				So(rows, ShouldHaveLength, 3)
				So(rows[0], ShouldResemble, model.RawRow{"Internal ID": "A", "Auto Wt": "100", "Stage": "S"})
				So(rows[1], ShouldResemble, model.RawRow{"Internal ID": "B", "Auto Wt": "50"})
				So(rows[2]["Auto Wt"], ShouldEqual, "bad")
				So(pos, ShouldResemble, []int{3, 5, 6})
			})

			Convey("Then the stream keeps returning EOF and rejects use after close", func() {
				_, err := s.Next(ctx)
				So(errors.Is(err, io.EOF), ShouldBeTrue)
				So(s.Close(), ShouldBeNil)
				_, err = s.Next(ctx)
				So(errors.Is(err, decoder.ErrClosed), ShouldBeTrue)
			})
		})

		Convey("When numeric cells are written as numbers", func() {
			data := workbook([][]any{{"Thor ID", "Value"}, {"T-1", 2500.75}})
			s, err := d.Open(ctx, bytes.NewReader(data), int64(len(data)))
			So(err, ShouldBeNil)
			rows, _, err := drain(s)

			Convey("Then they arrive as their text rendering", func() {
				So(err, ShouldBeNil)
				So(rows[0]["Value"], ShouldEqual, "2500.75")
			})
		})

		Convey("When the sheet only has a header", func() {
			data := workbook([][]any{{"Internal ID", "Auto Wt"}})
			s, err := d.Open(ctx, bytes.NewReader(data), int64(len(data)))
			So(err, ShouldBeNil)
			rows, _, err := drain(s)

			Convey("Then the stream is empty", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldBeEmpty)
			})
		})

		Convey("When the input is not a workbook", func() {
			_, err := d.Open(ctx, strings.NewReader("id,value\nA,1\n"), 12)

			Convey("Then the failure is fatal", func() {
				So(errors.Is(err, decoder.ErrDecodeFatal), ShouldBeTrue)
			})
		})

		Convey("When the declared size exceeds the limit", func() {
			small := decoder.NewExcel(decoder.WithMaxSize(10))
			_, err := small.Open(ctx, strings.NewReader(""), 11)

			Convey("Then it is rejected before reading", func() {
				So(errors.Is(err, decoder.ErrDecodeFatal), ShouldBeTrue)
			})
		})

		Convey("When the requested sheet does not exist", func() {
			data := workbook([][]any{{"Internal ID"}})
			_, err := decoder.NewExcel(decoder.WithSheet("Missing")).Open(ctx, bytes.NewReader(data), int64(len(data)))

			Convey("Then the failure is fatal", func() {
				So(errors.Is(err, decoder.ErrDecodeFatal), ShouldBeTrue)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := d.Open(cctx, bytes.NewReader(workbook([][]any{{"a"}})), -1)

			Convey("Then Open returns the context error", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}
