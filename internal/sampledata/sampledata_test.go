package sampledata_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/okian/bizboard/internal/adapters/decoder"
	"github.com/okian/bizboard/internal/domain/mapper"
	"github.com/okian/bizboard/internal/domain/model"
	"github.com/okian/bizboard/internal/sampledata"
	"github.com/okian/bizboard/pkg/logger"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init(logger.WithWriter(io.Discard))
	os.Exit(m.Run())
}

// decodeAll maps every row of a generated workbook.
func decodeAll(d model.Dataset, data []byte) (ok []model.Entity, bad int) {
	stream, err := decoder.NewExcel().Open(context.Background(), bytes.NewReader(data), int64(len(data)))
	if err != nil {
		panic(err)
	}
	defer stream.Close()
	mapRow, _ := mapper.For(d)
	for {
		raw, err := stream.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return ok, bad
		}
		if err != nil {
			panic(err)
		}
		e, err := mapRow(raw)
		if err != nil {
			bad++
			continue
		}
		ok = append(ok, e)
	}
}

func TestGenerate(t *testing.T) {
	Convey("Given the workbook generator", t, func() {
		ctx := context.Background()

		Convey("When bookings are generated with every tenth row broken", func() {
			buf := &bytes.Buffer{}
			stats, err := sampledata.Generate(ctx, model.Bookings, 50, 10, buf)
			So(err, ShouldBeNil)

			Convey("Then the pipeline's mapper accepts exactly the good rows", func() {
				entities, bad := decodeAll(model.Bookings, buf.Bytes())
				So(stats.BadRows, ShouldEqual, 5)
				So(bad, ShouldEqual, 5)
				So(entities, ShouldHaveLength, 45)

				total := decimal.Zero
				for _, e := range entities {
					total = total.Add(e.(*model.Booking).WeightedValue)
				}
				So(total.InexactFloat64(), ShouldAlmostEqual, stats.Total, 0.001)
			})
		})

		Convey("When proposals are generated", func() {
			buf := &bytes.Buffer{}
			stats, err := sampledata.Generate(ctx, model.Proposals, 20, 0, buf)
			So(err, ShouldBeNil)

			Convey("Then every row maps and stage counts match", func() {
				entities, bad := decodeAll(model.Proposals, buf.Bytes())
				So(bad, ShouldEqual, 0)
				So(entities, ShouldHaveLength, 20)
				won := 0
				for _, e := range entities {
					if e.(*model.Proposal).Stage == model.StageWon {
						won++
					}
				}
				So(won, ShouldEqual, stats.Won)
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := sampledata.Generate(cctx, model.Bookings, 10, 0, io.Discard)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestRunUploads(t *testing.T) {
	Convey("Given a service that accepts uploads", t, func() {
		var gotDataset, gotFile string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/healthz":
				w.WriteHeader(http.StatusOK)
			case "/ingest/proposals":
				gotDataset = "proposals"
				_, hdr, err := r.FormFile("file")
				if err == nil {
					gotFile = hdr.Filename
				}
				_ = json.NewEncoder(w).Encode(map[string]any{
					"runId": "r1", "state": "done", "rowsUpserted": 8, "rowsFailed": 2,
				})
			default:
				http.NotFound(w, r)
			}
		}))
		Reset(srv.Close)

		cfg := &sampledata.Config{
			BaseURL:  srv.URL,
			Dataset:  model.Proposals,
			Rows:     10,
			BadEvery: 5,
			OutDir:   t.TempDir(),
			Timeout:  5 * time.Second,
		}

		Convey("When the tool runs", func() {
			stats, err := sampledata.Run(context.Background(), cfg)

			Convey("Then the workbook is uploaded and the counts agree", func() {
				So(err, ShouldBeNil)
				So(gotDataset, ShouldEqual, "proposals")
				So(gotFile, ShouldEndWith, ".xlsx")
				_, statErr := os.Stat(stats.Path)
				So(statErr, ShouldBeNil)
			})
		})

		Convey("When the dataset is unknown", func() {
			cfg.Dataset = "leads"
			_, err := sampledata.Run(context.Background(), cfg)
			So(err, ShouldNotBeNil)
		})
	})
}
