package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/bizboard/internal/adapters/repository"
	"github.com/okian/bizboard/internal/config"
	"github.com/okian/bizboard/pkg/logger"
)

// OpenStore opens the document store selected by cfg.StoreDriver.
func OpenStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return repository.NewMemoryStore(), nil
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		return repository.NewSQLiteStore(ctx, cfg.SQLitePath, repository.WithLogger(log))
	case config.DriverPostgres:
		return repository.NewPostgresStore(ctx, cfg.PostgresDSN,
			repository.WithLogger(log),
			repository.WithMaxOpenConns(cfg.WorkerCount+2),
		)
	default:
		return nil, fmt.Errorf("%w: unknown store_driver %q", config.ErrInvalidConfig, cfg.StoreDriver)
	}
}
