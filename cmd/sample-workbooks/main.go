package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/okian/bizboard/internal/domain/model"
	"github.com/okian/bizboard/internal/sampledata"
)

// Default configuration constants.
const (
	defaultRows    = 1000
	defaultTimeout = 30 * time.Second
	defaultRunTime = 10 * time.Minute
)

func main() {
	_ = godotenv.Load()

	var (
		dataset  = flag.String("dataset", string(model.Bookings), "bookings or proposals")
		rows     = flag.Int("rows", defaultRows, "Number of data rows")
		badEvery = flag.Int("bad-every", 0, "Make every Nth row invalid, 0 for none")
		outDir   = flag.String("out", ".", "Output directory")
		baseURL  = flag.String("url", os.Getenv("BIZBOARD_URL"), "Upload to this service after generating")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile  = flag.String("log", "", "Also write logs to this file")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		sampledata.ShowHelp()
		return
	}

	if err := sampledata.SetupLogging(*logFile, *verbose); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTime)
	defer cancel()

	d, err := model.ParseDataset(*dataset)
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	cfg := &sampledata.Config{
		BaseURL:  *baseURL,
		Dataset:  d,
		Rows:     *rows,
		BadEvery: *badEvery,
		OutDir:   *outDir,
		Timeout:  *timeout,
		LogFile:  *logFile,
		Verbose:  *verbose,
	}
	if _, err := sampledata.Run(ctx, cfg); err != nil {
		_, _ = os.Stderr.WriteString("Run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
