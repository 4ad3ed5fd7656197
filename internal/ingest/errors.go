package ingest

import "errors"

// Sentinel kinds for ingestion errors.
var (
	// ErrUnsupportedFile marks a file without a spreadsheet extension. Such runs are skipped, not failed.
	ErrUnsupportedFile = errors.New("unsupported file type")
	// ErrOpenFile means the trigger could not hand over a readable file.
	ErrOpenFile = errors.New("open file")
	// ErrSummaryWrite means the summary could not be written within the retry budget.
	ErrSummaryWrite = errors.New("summary write failed")
	// ErrDuplicateKey rejects a row whose key already appeared earlier in the same file.
	ErrDuplicateKey = errors.New("duplicate key in file")
	// ErrTarget describes why the sold target could not be used.
	ErrTarget = errors.New("target unavailable")
)
