// Package ingest runs spreadsheet files through decoding, mapping, upserting and aggregation.
//
// A run moves Idle -> Downloading -> Streaming -> Finalizing -> Done, or to Failed from any
// state after Idle. The dataset summary is written only after every row upsert of the run
// has returned, and never when the run fails.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/okian/bizboard/internal/adapters/decoder"
	"github.com/okian/bizboard/internal/adapters/mq/queue"
	"github.com/okian/bizboard/internal/adapters/mq/worker"
	"github.com/okian/bizboard/internal/adapters/repository"
	"github.com/okian/bizboard/internal/domain/aggregate"
	"github.com/okian/bizboard/internal/domain/dedupe"
	"github.com/okian/bizboard/internal/domain/mapper"
	"github.com/okian/bizboard/internal/domain/model"
	"github.com/okian/bizboard/pkg/logger"
	"github.com/okian/bizboard/pkg/metrics"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// Pipeline ingests files. It is safe for concurrent use; runs of the same dataset are serialized.
type Pipeline struct {
	store   repository.Store
	decoder decoder.Decoder

	workers        int
	queueSize      int
	limiter        *rate.Limiter
	rowRetry       repository.RetryPolicy
	summaryRetry   repository.RetryPolicy
	failureSamples int
	nextID         func() string
	logger         logger.Logger

	guards map[model.Dataset]chan struct{}
}

// New creates a pipeline writing to store and reading files with dec.
func New(store repository.Store, dec decoder.Decoder, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:          store,
		decoder:        dec,
		workers:        defaultWorkers,
		queueSize:      defaultQueueSize,
		rowRetry:       repository.DefaultRetryPolicy,
		summaryRetry:   repository.DefaultRetryPolicy,
		failureSamples: defaultFailureSampleSize,
		nextID:         newRunID,
		guards: map[model.Dataset]chan struct{}{
			model.Bookings:  make(chan struct{}, 1),
			model.Proposals: make(chan struct{}, 1),
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("ingest")
	}
	return p
}

// Run ingests one file. The report is always returned; err is set only when the run failed.
// Files without a spreadsheet extension are skipped: the report is Done, Skipped and nothing is written.
func (p *Pipeline) Run(ctx context.Context, t Trigger) (*Report, error) {
	rep := &Report{
		RunID:     p.nextID(),
		Dataset:   t.Dataset,
		File:      t.Name,
		Size:      t.Size,
		Source:    t.Source,
		State:     StateIdle,
		StartedAt: time.Now().UTC(),
	}
	log := p.logger.With(
		logger.String("run_id", rep.RunID),
		logger.String("dataset", string(t.Dataset)),
		logger.String("file", t.Name),
	)

	if t.Dataset.Collection() == "" {
		return p.fail(ctx, log, rep, fmt.Errorf("%w: %q", model.ErrUnknownDataset, t.Dataset))
	}
	if !Accepts(t.Name) {
		rep.Skipped = true
		rep.State = StateDone
		metrics.RecordIngestRun(string(t.Dataset), "skipped")
		log.Info(ctx, "run skipped", logger.Error(fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Ext(t.Name))))
		return rep, nil
	}

	release, err := p.acquire(ctx, t.Dataset)
	if err != nil {
		return p.fail(ctx, log, rep, err)
	}
	defer release()

	metrics.AddActiveRuns(string(t.Dataset), 1)
	defer metrics.AddActiveRuns(string(t.Dataset), -1)
	log.Info(ctx, "ingestion started", logger.Int64("size", t.Size), logger.String("source", t.Source))

	rep.State = StateDownloading
	if t.Open == nil {
		return p.fail(ctx, log, rep, fmt.Errorf("%w: trigger has no opener", ErrOpenFile))
	}
	rc, err := t.Open(ctx)
	if err != nil {
		return p.fail(ctx, log, rep, fmt.Errorf("%w: %w", ErrOpenFile, err))
	}
	defer func() { _ = rc.Close() }()

	stream, err := p.decoder.Open(ctx, rc, t.Size)
	if err != nil {
		return p.fail(ctx, log, rep, err)
	}
	defer func() { _ = stream.Close() }()

	rep.State = StateStreaming
	acc, err := p.stream(ctx, log, t.Dataset, stream, rep)
	if err != nil {
		return p.fail(ctx, log, rep, err)
	}

	rep.State = StateFinalizing
	var target decimal.NullDecimal
	if t.Dataset == model.Bookings {
		target, rep.TargetIssue = readTarget(ctx, p.store)
		if rep.TargetIssue != "" {
			log.Warn(ctx, "sold target unavailable", logger.String("issue", rep.TargetIssue))
		}
	}
	summary := acc.Finalize(target).Document()

	err = p.summaryRetry.Do(ctx, func(ctx context.Context) error {
		return p.store.Set(ctx, model.CollectionOverall, string(t.Dataset), summary)
	})
	if err != nil {
		metrics.RecordSummaryWrite(string(t.Dataset), "failed")
		return p.fail(ctx, log, rep, fmt.Errorf("%w: %w", ErrSummaryWrite, err))
	}
	metrics.RecordSummaryWrite(string(t.Dataset), "ok")
	rep.SummaryWritten = true
	rep.Summary = summary

	rep.State = StateDone
	rep.Duration = time.Since(rep.StartedAt)
	metrics.RecordIngestRun(string(t.Dataset), "done")
	metrics.RecordRunDuration(string(t.Dataset), float64(rep.Duration.Milliseconds()))
	log.Info(ctx, "ingestion finished",
		logger.Int64("rows_seen", rep.RowsSeen),
		logger.Int64("rows_upserted", rep.RowsUpserted),
		logger.Int64("rows_failed", rep.RowsFailed),
		logger.Duration("duration", rep.Duration),
	)
	p.writeRunLog(ctx, log, rep)
	return rep, nil
}

// stream feeds mapped rows to a worker pool and returns the merged accumulator once every
// upsert has returned.
func (p *Pipeline) stream(ctx context.Context, log logger.Logger, d model.Dataset, rows decoder.RowStream, rep *Report) (aggregate.Accumulator, error) {
	mapRow, err := mapper.For(d)
	if err != nil {
		return nil, err
	}
	newAcc := func() aggregate.Accumulator {
		acc, _ := aggregate.New(d)
		return acc
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	t := &tally{dataset: d, maxSamples: p.failureSamples}
	defer t.into(rep)

	q := queue.NewInMemoryQueue[worker.Job](queue.WithCapacity(p.queueSize), queue.WithName("rows"))
	opts := []worker.Option{
		worker.WithRetryPolicy(p.rowRetry),
		worker.WithSink(workerSink{t}),
		worker.WithLogger(log.Named("worker")),
	}
	if p.limiter != nil {
		opts = append(opts, worker.WithLimiter(p.limiter))
	}
	pool := worker.NewPool(p.workers, q, p.store, newAcc, opts...)

	poolDone := make(chan error, 1)
	go func() {
		err := pool.Run(runCtx)
		if err != nil {
			cancel()
		}
		poolDone <- err
	}()

	prodErr := p.produce(runCtx, rows, mapRow, q, t)
	if prodErr != nil {
		cancel()
	}
	_ = q.Close()
	poolErr := <-poolDone

	switch {
	case poolErr != nil && !errors.Is(poolErr, context.Canceled):
		return nil, poolErr
	case prodErr != nil:
		return nil, prodErr
	case poolErr != nil:
		return nil, poolErr
	}

	acc := newAcc()
	if err := pool.Merge(acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// produce pulls rows until the stream ends. Rows that fail mapping or repeat an earlier key are
// recorded and skipped; only decoder and context errors stop it.
func (p *Pipeline) produce(ctx context.Context, rows decoder.RowStream, mapRow mapper.Func, q queue.Queue[worker.Job], t *tally) error {
	keys := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
	for {
		raw, err := rows.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		t.rowSeen()

		entity, err := mapRow(raw)
		if err != nil {
			var rowErr *mapper.RowError
			key := ""
			if errors.As(err, &rowErr) {
				key = rowErr.Key
			}
			t.rejected(rows.Position(), key, "decode", err)
			continue
		}
		if keys.SeenAndRecord(ctx, entity.Key()) {
			t.rejected(rows.Position(), entity.Key(), "duplicate", fmt.Errorf("%w: %s", ErrDuplicateKey, entity.Key()))
			continue
		}

		if err := q.EnqueueWait(ctx, worker.Job{Entity: entity, Row: rows.Position()}); err != nil {
			return err
		}
	}
}

// acquire takes the dataset guard, waiting for an earlier run to finish.
func (p *Pipeline) acquire(ctx context.Context, d model.Dataset) (func(), error) {
	guard := p.guards[d]
	select {
	case guard <- struct{}{}:
		return func() { <-guard }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pipeline) fail(ctx context.Context, log logger.Logger, rep *Report, err error) (*Report, error) {
	rep.State = StateFailed
	rep.Error = err.Error()
	rep.Duration = time.Since(rep.StartedAt)
	metrics.RecordIngestRun(string(rep.Dataset), "failed")
	metrics.RecordErrorByComponent("ingest", failureKind(err))
	log.Error(ctx, "ingestion failed",
		logger.Int64("rows_seen", rep.RowsSeen),
		logger.Int64("rows_upserted", rep.RowsUpserted),
		logger.Error(err),
	)
	if rep.Dataset.Collection() != "" {
		p.writeRunLog(ctx, log, rep)
	}
	return rep, fmt.Errorf("run %s: %w", rep.RunID, err)
}

// writeRunLog records the report. It is best effort and outlives a cancelled run context.
func (p *Pipeline) writeRunLog(ctx context.Context, log logger.Logger, rep *Report) {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.store.Set(wctx, model.CollectionIngestionRuns, rep.RunID, rep.Document()); err != nil {
		log.Warn(ctx, "run log not written", logger.Error(err))
	}
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, decoder.ErrDecodeFatal):
		return "decode_fatal"
	case errors.Is(err, repository.ErrUnavailable):
		return "store_unavailable"
	case errors.Is(err, ErrSummaryWrite):
		return "summary_write"
	case errors.Is(err, ErrOpenFile):
		return "open_file"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}

type workerSink struct{ t *tally }

func (s workerSink) Committed(worker.Job) { s.t.committed() }

func (s workerSink) Rejected(job worker.Job, err error) {
	s.t.rejected(job.Row, job.Entity.Key(), "upsert", err)
}
