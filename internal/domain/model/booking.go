package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SoldStage is the booking stage code counted as sold.
const SoldStage = "S"

// Booking is one row of the bookings export, keyed by its internal id.
type Booking struct {
	InternalID      string
	FiscalYear      string
	AccountName     string
	OpportunityName string
	PGI             string
	WeightedValue   decimal.Decimal
	UnweightedValue decimal.NullDecimal
	Stage           string
	SignDate        *time.Time
	StageDate       *time.Time
	Month           string
	Quarter         string
	Segment         string
	SubSegment      string
	Sector          string
	Country         string
}

// Key implements Entity.
func (b *Booking) Key() string { return b.InternalID }

// Dataset implements Entity.
func (b *Booking) Dataset() Dataset { return Bookings }

// Sold reports whether the booking counts toward totalSold.
func (b *Booking) Sold() bool { return b.Stage == SoldStage }

// Document renders the booking as stored. Absent optional fields are omitted.
func (b *Booking) Document() Document {
	doc := Document{
		"valueWt": b.WeightedValue.InexactFloat64(),
	}
	putString(doc, "year", b.FiscalYear)
	putString(doc, "accName", b.AccountName)
	putString(doc, "oppName", b.OpportunityName)
	putString(doc, "pgi", b.PGI)
	if b.UnweightedValue.Valid {
		doc["valueUnWt"] = b.UnweightedValue.Decimal.InexactFloat64()
	}
	putString(doc, "stage", b.Stage)
	putTime(doc, "cttSignDate", b.SignDate)
	putTime(doc, "salesStageDate", b.StageDate)
	putString(doc, "month", b.Month)
	putString(doc, "quarter", b.Quarter)
	putString(doc, "segment", b.Segment)
	putString(doc, "subSegment", b.SubSegment)
	putString(doc, "sector", b.Sector)
	putString(doc, "country", b.Country)
	return doc
}

func putString(doc Document, key, v string) {
	if v != "" {
		doc[key] = v
	}
}

func putTime(doc Document, key string, v *time.Time) {
	if v != nil {
		doc[key] = v.UTC()
	}
}
