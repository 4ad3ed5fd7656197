package sampledata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/bizboard/pkg/logger"
)

const directoryPermission = 0o750

// Run generates a workbook and, when a base URL is configured, uploads it and compares
// the returned counts with what was generated.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("sampledata")
	if cfg.Dataset.Collection() == "" {
		return nil, fmt.Errorf("unknown dataset %q", cfg.Dataset)
	}

	var client *HTTPClient
	if cfg.BaseURL != "" {
		client = NewHTTPClient(cfg.BaseURL, cfg.Timeout)
		if err := client.Healthy(ctx); err != nil {
			return nil, fmt.Errorf("service health check failed: %w", err)
		}
	}

	if err := os.MkdirAll(cfg.OutDir, directoryPermission); err != nil {
		return nil, err
	}
	path := filepath.Join(cfg.OutDir, fmt.Sprintf("%s_%s.xlsx", cfg.Dataset, time.Now().Format("20060102_150405")))
	f, err := os.Create(path) //nolint:gosec // operator-supplied directory
	if err != nil {
		return nil, err
	}
	stats, err := Generate(ctx, cfg.Dataset, cfg.Rows, cfg.BadEvery, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("workbook generation failed: %w", err)
	}
	stats.Path = path
	log.Info(ctx, "workbook written",
		logger.String("path", path),
		logger.Int("rows", stats.Rows),
		logger.Int("bad_rows", stats.BadRows),
		logger.Float64("total", stats.Total),
		logger.Duration("duration", stats.Duration),
	)

	if client == nil {
		return stats, nil
	}

	res, status, err := client.Upload(ctx, cfg.Dataset, path)
	if err != nil {
		return stats, fmt.Errorf("upload failed: %w", err)
	}
	log.Info(ctx, "upload finished",
		logger.Int("status", status),
		logger.String("run_id", res.RunID),
		logger.String("state", res.State),
		logger.Int64("rows_upserted", res.RowsUpserted),
		logger.Int64("rows_failed", res.RowsFailed),
		logger.Any("summary", res.Summary),
	)
	if want := int64(stats.Rows - stats.BadRows); res.RowsUpserted != want {
		return stats, fmt.Errorf("service upserted %d rows, expected %d", res.RowsUpserted, want)
	}
	return stats, nil
}
