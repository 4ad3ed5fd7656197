// Package worker upserts mapped rows into the document store on a bounded pool.
//
// Each worker folds the rows it committed into its own partial accumulator; the
// pool merges the partials once every worker has drained the queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/bizboard/internal/adapters/repository"
	"github.com/okian/bizboard/internal/domain/aggregate"
	"github.com/okian/bizboard/internal/domain/model"
	"github.com/okian/bizboard/pkg/logger"
	"github.com/okian/bizboard/pkg/metrics"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Job is one mapped row waiting to be upserted.
type Job struct {
	Entity model.Entity
	// Row is the sheet row number, for reporting.
	Row int
}

// Writer is the part of the store the workers need.
type Writer interface {
	Set(ctx context.Context, collection, key string, doc model.Document) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Sink is told the outcome of every job. Implementations must be safe for concurrent use.
type Sink interface {
	Committed(job Job)
	Rejected(job Job, err error)
}

// InMemoryWorker processes jobs and writes rows using the provided interfaces.
type InMemoryWorker struct {
	queue   Queue
	writer  Writer
	acc     aggregate.Accumulator
	limiter *rate.Limiter
	retry   repository.RetryPolicy
	sink    Sink
	name    string
	logger  logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, writer Writer, acc aggregate.Accumulator, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:  queue,
		writer: writer,
		acc:    acc,
		retry:  repository.DefaultRetryPolicy,
		sink:   nopSink{},
		name:   "worker",
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}

	return w
}

// Partial returns the worker's accumulator. Read it only after Run returned.
func (w *InMemoryWorker) Partial() aggregate.Accumulator { return w.acc }

// Run consumes jobs until the queue is closed and drained. It returns an error only for
// conditions that must stop the whole run: the store became unavailable or ctx ended.
func (w *InMemoryWorker) Run(ctx context.Context) error {
	metrics.AddWorkerActiveCount(1)
	defer metrics.AddWorkerActiveCount(-1)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job, ok := <-jobs:
			if !ok {
				return ctx.Err()
			}
			if err := w.process(ctx, job); err != nil {
				return err
			}
		}
	}
}

// process upserts one row. Row-level failures go to the sink; only fatal errors are returned.
func (w *InMemoryWorker) process(ctx context.Context, job Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	e := job.Entity
	err := w.retry.Do(ctx, func(ctx context.Context) error {
		return w.writer.Set(ctx, e.Dataset().Collection(), e.Key(), e.Document())
	})
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrUnavailable):
		metrics.RecordWorkerError()
		metrics.RecordErrorByType("store_unavailable", "critical")
		return fmt.Errorf("upsert row %d (%s): %w", job.Row, e.Key(), err)
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "upsert_failed")
		w.logger.Warn(ctx, "row upsert failed",
			logger.Int("row", job.Row),
			logger.String("key", e.Key()),
			logger.Error(err),
		)
		w.sink.Rejected(job, err)
		return nil
	}

	if err := w.acc.Accumulate(e); err != nil {
		w.sink.Rejected(job, err)
		return nil
	}
	w.sink.Committed(job)
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	logger  logger.Logger
}

// NewPool creates workerCount workers. newAcc is called once per worker for its partial.
func NewPool(workerCount int, queue Queue, writer Writer, newAcc func() aggregate.Accumulator, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
	}

	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{}, opts...)
		wopts = append(wopts, WithName("worker-"+strconv.Itoa(i)))
		pool.workers[i] = NewInMemoryWorker(queue, writer, newAcc(), wopts...)
	}
	pool.logger = pool.workers[0].logger

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Run starts every worker and waits for all of them. The first fatal error cancels the
// others and is returned; nil means the queue was closed and fully drained.
func (p *Pool) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, w := range p.workers {
		g.Go(func() error { return w.Run(gctx) })
	}
	if err := g.Wait(); err != nil {
		p.logger.Error(ctx, "worker pool stopped", logger.Error(err))
		return err
	}
	return nil
}

// Merge folds every worker's partial into acc. Call it only after Run returned.
func (p *Pool) Merge(acc aggregate.Accumulator) error {
	for _, w := range p.workers {
		if err := acc.Merge(w.acc); err != nil {
			return err
		}
	}
	return nil
}

type nopSink struct{}

func (nopSink) Committed(Job)       {}
func (nopSink) Rejected(Job, error) {}
