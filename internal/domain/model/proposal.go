package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Proposal stages with dedicated summary buckets. Any other stage is counted only in the total.
const (
	StageInProgress = "In Progress"
	StageWon        = "Won"
	StageLost       = "Lost"
	StageSubmitted  = "Submitted"
)

// Proposal is one row of the proposals export, keyed by its Thor id.
type Proposal struct {
	ThorID          string
	APNID           string
	AccountName     string
	OpportunityName string
	Value           decimal.NullDecimal
	COELead         string
	Stage           string
	TargetQuarter   string
	Segment         string
	StartDate       *time.Time
	EndDate         *time.Time
}

// Key implements Entity.
func (p *Proposal) Key() string { return p.ThorID }

// Dataset implements Entity.
func (p *Proposal) Dataset() Dataset { return Proposals }

// Document renders the proposal as stored. Absent optional fields are omitted.
func (p *Proposal) Document() Document {
	doc := Document{}
	putString(doc, "apnId", p.APNID)
	putString(doc, "accName", p.AccountName)
	putString(doc, "oppName", p.OpportunityName)
	if p.Value.Valid {
		doc["value"] = p.Value.Decimal.InexactFloat64()
	}
	putString(doc, "coeLead", p.COELead)
	putString(doc, "stage", p.Stage)
	putString(doc, "targetQuarter", p.TargetQuarter)
	putString(doc, "segment", p.Segment)
	putTime(doc, "startDate", p.StartDate)
	putTime(doc, "endDate", p.EndDate)
	return doc
}
