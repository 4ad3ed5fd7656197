package sampledata

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/okian/bizboard/internal/domain/coerce"
	"github.com/okian/bizboard/internal/domain/mapper"
	"github.com/okian/bizboard/internal/domain/model"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Sheet1"

var (
	accounts  = []string{"Acme Corp", "Globex", "Initech", "Umbrella", "Hooli", "Stark Industries"}
	segments  = []string{"Enterprise", "Public Sector", "Mid-Market"}
	subs      = []string{"Strategic", "Growth", "Core"}
	sectors   = []string{"Finance", "Health", "Retail", "Energy"}
	countries = []string{"UK", "DE", "FR", "US", "NL"}
	leads     = []string{"Data", "Cloud", "Security", "Apps"}
	bookStage = []string{model.SoldStage, model.SoldStage, "P", "C", "Q"}
	propStage = []string{model.StageWon, model.StageLost, model.StageInProgress, model.StageSubmitted}
)

func pick(list []string) string {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(list))))
	return list[n.Int64()]
}

// amount returns a random value with two decimals between 1,000 and 250,000.
func amount() decimal.Decimal {
	n, _ := rand.Int(rand.Reader, big.NewInt(24_900_000))
	return decimal.New(n.Int64()+100_000, -2)
}

func day() time.Time {
	n, _ := rand.Int(rand.Reader, big.NewInt(365))
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, int(n.Int64()))
}

// Generate writes a workbook of rows data rows for d to w using the streaming writer.
func Generate(ctx context.Context, d model.Dataset, rows, badEvery int, w io.Writer) (*Stats, error) {
	specs := mapper.Specs(d)
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return nil, fmt.Errorf("stream writer: %w", err)
	}

	header := make([]any, len(specs))
	for i, s := range specs {
		header[i] = s.Name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, err
	}

	stats := &Stats{Rows: rows, StartTime: time.Now()}
	total, sold := decimal.Zero, decimal.Zero
	for i := 0; i < rows; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bad := badEvery > 0 && (i+1)%badEvery == 0

		var cells map[string]string
		if d == model.Proposals {
			cells = proposalRow(i)
			if bad {
				cells[mapper.ColStartDate] = "31/02/2025"
			} else {
				stats.Total++
				switch cells[mapper.ColStage] {
				case model.StageWon:
					stats.Won++
				case model.StageLost:
					stats.Lost++
				}
			}
		} else {
			var wt decimal.Decimal
			cells, wt = bookingRow(i)
			if bad {
				cells[mapper.ColAutoWt] = "n/a"
			} else {
				total = total.Add(wt)
				if cells[mapper.ColStage] == model.SoldStage {
					sold = sold.Add(wt)
				}
			}
		}
		if bad {
			stats.BadRows++
		}

		row := make([]any, len(specs))
		for j, s := range specs {
			row[j] = cells[s.Name]
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, row); err != nil {
			return nil, err
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, err
	}
	if _, err := f.WriteTo(w); err != nil {
		return nil, err
	}

	if d == model.Bookings {
		stats.Total = total.InexactFloat64()
		stats.TotalSold = sold.InexactFloat64()
	}
	stats.Duration = time.Since(stats.StartTime)
	return stats, nil
}

func bookingRow(i int) (map[string]string, decimal.Decimal) {
	wt := amount()
	sign := day()
	return map[string]string{
		mapper.ColInternalID:      fmt.Sprintf("BK-%06d", i+1),
		mapper.ColYear:            "FY25",
		mapper.ColAccountName:     pick(accounts),
		mapper.ColOpportunityName: "Opportunity " + uuid.NewString()[:8],
		mapper.ColPGI:             fmt.Sprintf("PGI%03d", i%50),
		mapper.ColAutoUnWt:        "$" + wt.Mul(decimal.NewFromInt(2)).StringFixed(2),
		mapper.ColAutoWt:          wt.StringFixed(2),
		mapper.ColStage:           pick(bookStage),
		mapper.ColCTTSignDate:     sign.Format(coerce.BookingDateLayout),
		mapper.ColSalesStageDate:  sign.AddDate(0, 0, -14).Format(coerce.BookingDateLayout),
		mapper.ColMonth:           sign.Format("Jan"),
		mapper.ColQuarter:         fmt.Sprintf("Q%d", (int(sign.Month())-1)/3+1),
		mapper.ColSegment:         pick(segments),
		mapper.ColSubSegment:      pick(subs),
		mapper.ColSector:          pick(sectors),
		mapper.ColCountry:         pick(countries),
	}, wt
}

func proposalRow(i int) map[string]string {
	start := day()
	return map[string]string{
		mapper.ColThorID:          fmt.Sprintf("TH-%06d", i+1),
		mapper.ColAPNID:           fmt.Sprintf("APN-%d", 1000+i),
		mapper.ColAccountName:     pick(accounts),
		mapper.ColOpportunityName: "Proposal " + uuid.NewString()[:8],
		mapper.ColValue:           amount().StringFixed(2),
		mapper.ColCOELead:         pick(leads),
		mapper.ColStage:           pick(propStage),
		mapper.ColTargetQuarter:   fmt.Sprintf("Q%d FY25", (int(start.Month())-1)/3+1),
		mapper.ColSegment:         pick(segments),
		mapper.ColStartDate:       start.Format(coerce.ProposalDateLayout),
		mapper.ColEndDate:         start.AddDate(0, 3, 0).Format(coerce.ProposalDateLayout),
	}
}
