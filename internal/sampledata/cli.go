package sampledata

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/bizboard/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging initializes the logger, writing to stdout and, when logFile is set, to that file too.
func SetupLogging(logFile string, verbose bool) error {
	var w io.Writer = os.Stdout
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission) //nolint:gosec // operator-supplied path
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, file)
	}
	if err := logger.Init(logger.WithWriter(w)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the sample workbook tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`bizboard sample workbooks
=========================

Generates bookings or proposals exports and optionally uploads them.

Usage:
  go run ./cmd/sample-workbooks [options]

Options:
  -dataset string
        bookings or proposals (default "bookings")
  -rows int
        Number of data rows (default 1000)
  -bad-every int
        Make every Nth row invalid, 0 for none (default 0)
  -out string
        Output directory (default ".")
  -url string
        Upload to this service after generating, e.g. http://localhost:9080
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Also write logs to this file
  -verbose
        Enable debug logging
  -help
        Show this help message

Examples:
  # Write 5000 proposals rows to ./samples
  go run ./cmd/sample-workbooks -dataset proposals -rows 5000 -out samples

  # Generate bookings with a bad row every 100 rows and upload them
  go run ./cmd/sample-workbooks -bad-every 100 -url http://localhost:9080
`)
}
