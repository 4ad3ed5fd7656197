package ingest

import (
	"sync"
	"time"

	"github.com/okian/bizboard/internal/domain/model"
	"github.com/okian/bizboard/pkg/metrics"
)

// Failure is one rejected row kept verbatim in a report.
type Failure struct {
	Row    int    `json:"row"`
	Key    string `json:"key,omitempty"`
	Reason string `json:"reason"`
}

// Report is the outcome of one run.
type Report struct {
	RunID          string         `json:"runId"`
	Dataset        model.Dataset  `json:"dataset"`
	File           string         `json:"file"`
	Size           int64          `json:"size"`
	Source         string         `json:"source,omitempty"`
	State          State          `json:"state"`
	Skipped        bool           `json:"skipped"`
	RowsSeen       int64          `json:"rowsSeen"`
	RowsUpserted   int64          `json:"rowsUpserted"`
	RowsFailed     int64          `json:"rowsFailed"`
	Failures       []Failure      `json:"failures,omitempty"`
	SummaryWritten bool           `json:"summaryWritten"`
	Summary        model.Document `json:"summary,omitempty"`
	TargetIssue    string         `json:"targetIssue,omitempty"`
	StartedAt      time.Time      `json:"startedAt"`
	Duration       time.Duration  `json:"durationNs"`
	Error          string         `json:"error,omitempty"`
}

// Document renders the report for the run log.
func (r *Report) Document() model.Document {
	failures := make([]any, 0, len(r.Failures))
	for _, f := range r.Failures {
		failures = append(failures, map[string]any{"row": f.Row, "key": f.Key, "reason": f.Reason})
	}
	doc := model.Document{
		"dataset":        string(r.Dataset),
		"file":           r.File,
		"size":           r.Size,
		"source":         r.Source,
		"state":          string(r.State),
		"rowsSeen":       r.RowsSeen,
		"rowsUpserted":   r.RowsUpserted,
		"rowsFailed":     r.RowsFailed,
		"failures":       failures,
		"summaryWritten": r.SummaryWritten,
		"startedAt":      r.StartedAt.UTC(),
		"durationMs":     r.Duration.Milliseconds(),
	}
	if r.TargetIssue != "" {
		doc["targetIssue"] = r.TargetIssue
	}
	if r.Error != "" {
		doc["error"] = r.Error
	}
	return doc
}

// tally collects row outcomes from the producer and the workers.
type tally struct {
	dataset    model.Dataset
	maxSamples int

	mu       sync.Mutex
	seen     int64
	upserted int64
	failed   int64
	samples  []Failure
}

func (t *tally) rowSeen() {
	t.mu.Lock()
	t.seen++
	t.mu.Unlock()
	metrics.RecordRowSeen(string(t.dataset))
}

func (t *tally) committed() {
	t.mu.Lock()
	t.upserted++
	t.mu.Unlock()
	metrics.RecordRowUpserted(string(t.dataset))
}

func (t *tally) rejected(row int, key, reason string, err error) {
	t.mu.Lock()
	t.failed++
	if len(t.samples) < t.maxSamples {
		t.samples = append(t.samples, Failure{Row: row, Key: key, Reason: err.Error()})
	}
	t.mu.Unlock()
	metrics.RecordRowFailed(string(t.dataset), reason)
}

func (t *tally) into(r *Report) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r.RowsSeen = t.seen
	r.RowsUpserted = t.upserted
	r.RowsFailed = t.failed
	r.Failures = append([]Failure(nil), t.samples...)
}
