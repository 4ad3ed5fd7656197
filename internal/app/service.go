// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/bizboard/internal/adapters/decoder"
	"github.com/okian/bizboard/internal/adapters/repository"
	"github.com/okian/bizboard/internal/adapters/trigger"
	"github.com/okian/bizboard/internal/config"
	"github.com/okian/bizboard/internal/domain/model"
	"github.com/okian/bizboard/internal/ingest"
	"github.com/okian/bizboard/internal/passcode"
	"github.com/okian/bizboard/pkg/logger"
)

// Service owns the store, the ingestion pipeline, the passcode service and the bucket watcher.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Core components
	store     repository.Store
	pipeline  *ingest.Pipeline
	passcodes *passcode.Service
	watcher   *trigger.Watcher

	// Injected overrides
	injectedStore repository.Store
	mailer        passcode.Mailer

	// Counters
	runsDone    atomic.Int64
	runsFailed  atomic.Int64
	runsSkipped atomic.Int64
	lastRunID   atomic.Value

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the service configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithStore uses store instead of opening one from the configured driver.
// The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.injectedStore = store
	}
}

// WithMailer sets the passcode mailer.
func WithMailer(m passcode.Mailer) Option {
	return func(s *Service) {
		s.mailer = m
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cfg: config.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	cfg := s.cfg

	s.logger.Info(ctx, "starting bizboard service...", logger.String("store", cfg.StoreDriver))

	store := s.injectedStore
	if store == nil {
		var err error
		store, err = OpenStore(ctx, cfg, s.logger.Named("store"))
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
	}
	s.store = repository.NewInstrumented(store)

	retry := repository.RetryPolicy{
		MaxAttempts: cfg.UpsertMaxAttempts,
		Backoff:     time.Duration(cfg.UpsertBackoffMS) * time.Millisecond,
	}
	s.pipeline = ingest.New(s.store, decoder.NewExcel(decoder.WithMaxSize(cfg.MaxUploadBytes)),
		ingest.WithWorkers(cfg.WorkerCount),
		ingest.WithQueueSize(cfg.QueueSize),
		ingest.WithWriteLimit(cfg.WriteRatePerSec, cfg.WriteBurst),
		ingest.WithRowRetry(retry),
		ingest.WithSummaryRetry(retry),
		ingest.WithFailureSampleSize(cfg.FailureSampleSize),
		ingest.WithLogger(s.logger.Named("ingest")),
	)

	s.passcodes = passcode.New(s.store,
		passcode.WithLength(cfg.PasscodeLength),
		passcode.WithTTL(time.Duration(cfg.PasscodeTTLSeconds)*time.Second),
		passcode.WithMaxAttempts(cfg.PasscodeMaxAttempts),
		passcode.WithSender(cfg.MailFrom, cfg.MailTemplateID),
		passcode.WithMailer(s.mailer),
		passcode.WithLogger(s.logger.Named("passcode")),
	)

	s.started = true
	if cfg.WatchEnabled {
		s.watcher = trigger.New(s,
			trigger.WithBucket(model.Bookings, cfg.WatchBookingsDir),
			trigger.WithBucket(model.Proposals, cfg.WatchProposalsDir),
			trigger.WithSettle(time.Duration(cfg.WatchSettleMS)*time.Millisecond),
			trigger.WithQueueSize(cfg.WatchQueueSize),
			trigger.WithLogger(s.logger.Named("watcher")),
		)
		if err := s.watcher.Start(ctx); err != nil {
			s.started = false
			s.watcher = nil
			_ = s.store.Close()
			return fmt.Errorf("start watcher: %w", err)
		}
	}

	s.logger.Info(ctx, "bizboard service started",
		logger.Int("workers", cfg.WorkerCount),
		logger.Int("queueSize", cfg.QueueSize),
		logger.Bool("watch", cfg.WatchEnabled),
	)
	return nil
}

// Stop gracefully shuts down the service. A run in progress finishes before the store closes.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping bizboard service...")
	w, store := s.watcher, s.store
	s.watcher = nil
	s.started = false
	s.mu.Unlock()

	// The watcher's current run calls back into the service, so it is stopped without the lock held.
	if w != nil {
		if err := w.Stop(); err != nil {
			s.logger.Warn(ctx, "watcher stop", logger.Error(err))
		}
	}
	if store != nil {
		if err := store.Close(); err != nil {
			s.logger.Warn(ctx, "store close", logger.Error(err))
		}
	}
	s.logger.Info(ctx, "bizboard service stopped")
}

func (s *Service) components() (*ingest.Pipeline, *passcode.Service, repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, nil, ErrNotStarted
	}
	return s.pipeline, s.passcodes, s.store, nil
}

// Ingest runs one file through the pipeline. It also serves as the watcher's runner.
func (s *Service) Ingest(ctx context.Context, t ingest.Trigger) (*ingest.Report, error) {
	p, _, _, err := s.components()
	if err != nil {
		return nil, err
	}
	rep, err := p.Run(ctx, t)
	switch {
	case err != nil:
		s.runsFailed.Add(1)
	case rep.Skipped:
		s.runsSkipped.Add(1)
	default:
		s.runsDone.Add(1)
	}
	if rep != nil {
		s.lastRunID.Store(rep.RunID)
	}
	return rep, err
}

// Run implements trigger.Runner.
func (s *Service) Run(ctx context.Context, t ingest.Trigger) (*ingest.Report, error) {
	return s.Ingest(ctx, t)
}

// Overall returns the summary document of d.
func (s *Service) Overall(ctx context.Context, d model.Dataset) (model.Document, bool, error) {
	_, _, store, err := s.components()
	if err != nil {
		return nil, false, err
	}
	return store.Get(ctx, model.CollectionOverall, string(d))
}

// RunLog returns the log document of a run.
func (s *Service) RunLog(ctx context.Context, runID string) (model.Document, bool, error) {
	_, _, store, err := s.components()
	if err != nil {
		return nil, false, err
	}
	return store.Get(ctx, model.CollectionIngestionRuns, runID)
}

// SetTarget stores the bookings sold target.
func (s *Service) SetTarget(ctx context.Context, target float64) error {
	_, _, store, err := s.components()
	if err != nil {
		return err
	}
	doc, ok, err := store.Get(ctx, model.CollectionConstants, model.ConstantsBookings)
	if err != nil {
		return err
	}
	if !ok {
		doc = model.Document{}
	}
	doc[model.FieldTarget] = target
	return store.Set(ctx, model.CollectionConstants, model.ConstantsBookings, doc)
}

// IssuePasscode mails a passcode to an approved user.
func (s *Service) IssuePasscode(ctx context.Context, email string) error {
	_, pc, _, err := s.components()
	if err != nil {
		return err
	}
	return pc.Issue(ctx, email)
}

// VerifyPasscode exchanges a passcode for a session token.
func (s *Service) VerifyPasscode(ctx context.Context, email, code string) (string, error) {
	_, pc, _, err := s.components()
	if err != nil {
		return "", err
	}
	return pc.Verify(ctx, email, code)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"storeDriver": s.cfg.StoreDriver,
		"workerCount": s.cfg.WorkerCount,
		"queueSize":   s.cfg.QueueSize,
		"runsDone":    s.runsDone.Load(),
		"runsFailed":  s.runsFailed.Load(),
		"runsSkipped": s.runsSkipped.Load(),
		"watching":    s.watcher != nil,
	}
	if id, ok := s.lastRunID.Load().(string); ok {
		stats["lastRunId"] = id
	}
	if s.watcher != nil {
		stats["pendingTriggers"] = s.watcher.Pending(context.Background())
		stats["watchQueueSize"] = s.cfg.WatchQueueSize
	}
	return stats
}
