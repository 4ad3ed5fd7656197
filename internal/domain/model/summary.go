package model

// Ratio is a percentage that may be undefined, e.g. when its denominator is zero.
// An unavailable ratio is stored as null next to an explicit "<name>Available": false flag.
type Ratio struct {
	Value     float64
	Available bool
}

// Unavailable is the zero-denominator ratio.
var Unavailable = Ratio{}

func (r Ratio) put(doc Document, name string) {
	if r.Available {
		doc[name] = r.Value
	} else {
		doc[name] = nil
	}
	doc[name+"Available"] = r.Available
}

// Summary is the derived per-dataset aggregate written to the Overall collection.
type Summary interface {
	Dataset() Dataset
	Document() Document
}

// BookingsSummary aggregates a bookings run.
type BookingsSummary struct {
	Total       float64
	TotalSold   float64
	SoldPercent Ratio
}

// Dataset implements Summary.
func (s *BookingsSummary) Dataset() Dataset { return Bookings }

// Document implements Summary.
func (s *BookingsSummary) Document() Document {
	doc := Document{
		"total":     s.Total,
		"totalSold": s.TotalSold,
	}
	s.SoldPercent.put(doc, "soldPercent")
	return doc
}

// ProposalsSummary aggregates a proposals run.
type ProposalsSummary struct {
	Total           int64
	TotalWon        int64
	TotalLost       int64
	TotalInProgress int64
	TotalCompleted  int64
	WonPercent      Ratio
}

// Dataset implements Summary.
func (s *ProposalsSummary) Dataset() Dataset { return Proposals }

// Document implements Summary.
func (s *ProposalsSummary) Document() Document {
	doc := Document{
		"total":           s.Total,
		"totalWon":        s.TotalWon,
		"totalLost":       s.TotalLost,
		"totalInProgress": s.TotalInProgress,
		"totalCompleted":  s.TotalCompleted,
	}
	s.WonPercent.put(doc, "wonPercent")
	return doc
}
