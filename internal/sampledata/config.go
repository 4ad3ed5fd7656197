package sampledata

import (
	"time"

	"github.com/okian/bizboard/internal/domain/model"
)

// Config holds configuration for a generation run.
type Config struct {
	BaseURL  string        // Base URL of the service; empty disables upload
	Dataset  model.Dataset // Dataset to generate
	Rows     int           // Number of data rows
	BadEvery int           // Every Nth row gets an invalid amount; 0 disables
	OutDir   string        // Directory the workbook is written to
	Timeout  time.Duration // HTTP request timeout
	LogFile  string        // Log file for tool output
	Verbose  bool          // Enable verbose logging
}

// Stats describes what was generated, so a caller can check the resulting summary.
type Stats struct {
	Path      string
	Rows      int
	BadRows   int
	Total     float64 // bookings: weighted sum of valid rows; proposals: count of valid rows
	TotalSold float64 // bookings only
	Won       int     // proposals only
	Lost      int     // proposals only
	StartTime time.Time
	Duration  time.Duration
}

// UploadResult is the part of the run report the tool prints.
type UploadResult struct {
	RunID          string         `json:"runId"`
	State          string         `json:"state"`
	RowsSeen       int64          `json:"rowsSeen"`
	RowsUpserted   int64          `json:"rowsUpserted"`
	RowsFailed     int64          `json:"rowsFailed"`
	SummaryWritten bool           `json:"summaryWritten"`
	Summary        map[string]any `json:"summary"`
	Error          string         `json:"error"`
}
