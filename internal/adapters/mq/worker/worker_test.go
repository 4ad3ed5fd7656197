package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/bizboard/internal/adapters/mq/queue"
	"github.com/okian/bizboard/internal/adapters/mq/worker"
	"github.com/okian/bizboard/internal/adapters/repository"
	"github.com/okian/bizboard/internal/domain/aggregate"
	"github.com/okian/bizboard/internal/domain/model"
	logging "github.com/okian/bizboard/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/smartystreets/goconvey/convey"
	"golang.org/x/time/rate"
)

// flakyWriter fails configured keys, either a number of times or forever.
type flakyWriter struct {
	mu       sync.Mutex
	docs     map[string]model.Document
	failures map[string]int
	errs     map[string]error
	calls    map[string]int
}

func newFlakyWriter() *flakyWriter {
	return &flakyWriter{
		docs:     make(map[string]model.Document),
		failures: make(map[string]int),
		errs:     make(map[string]error),
		calls:    make(map[string]int),
	}
}

func (w *flakyWriter) Set(_ context.Context, collection, key string, doc model.Document) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls[key]++
	if err, ok := w.errs[key]; ok {
		if w.failures[key] < 0 || w.calls[key] <= w.failures[key] {
			return err
		}
	}
	w.docs[collection+"/"+key] = doc
	return nil
}

func (w *flakyWriter) fail(key string, times int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failures[key] = times
	w.errs[key] = err
}

func (w *flakyWriter) has(collection, key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.docs[collection+"/"+key]
	return ok
}

type recordingSink struct {
	mu        sync.Mutex
	committed []string
	rejected  map[string]error
}

func newRecordingSink() *recordingSink {
	return &recordingSink{rejected: make(map[string]error)}
}

func (s *recordingSink) Committed(job worker.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed = append(s.committed, job.Entity.Key())
}

func (s *recordingSink) Rejected(job worker.Job, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected[job.Entity.Key()] = err
}

func bookingJob(id, wt, stage string, row int) worker.Job {
	return worker.Job{
		Entity: &model.Booking{InternalID: id, WeightedValue: decimal.RequireFromString(wt), Stage: stage},
		Row:    row,
	}
}

func newBookingsAcc() aggregate.Accumulator {
	acc, _ := aggregate.New(model.Bookings)
	return acc
}

var fastRetry = repository.RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond}

func TestPool(t *testing.T) {
	convey.Convey("Given a worker pool over a bounded queue", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue[worker.Job](queue.WithCapacity(4))
		writer := newFlakyWriter()
		sink := newRecordingSink()
		pool := worker.NewPool(3, q, writer, newBookingsAcc,
			worker.WithRetryPolicy(fastRetry),
			worker.WithSink(sink),
		)
		ctx := context.Background()

		convey.Convey("When many rows are processed", func() {
			done := make(chan error, 1)
			go func() { done <- pool.Run(ctx) }()

			for i := 0; i < 50; i++ {
				stage := "X"
				if i%2 == 0 {
					stage = "S"
				}
				convey.So(q.EnqueueWait(ctx, bookingJob(fmt.Sprintf("k%d", i), "10", stage, i+2)), convey.ShouldBeNil)
			}
			_ = q.Close()
			err := <-done

			total := newBookingsAcc()
			convey.So(pool.Merge(total), convey.ShouldBeNil)
			s := total.Finalize(decimal.NewNullDecimal(decimal.NewFromInt(500))).(*model.BookingsSummary)

			convey.Convey("Then every row is committed and the merged partials agree", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(pool.Size(), convey.ShouldEqual, 3)
				convey.So(sink.committed, convey.ShouldHaveLength, 50)
				convey.So(s.Total, convey.ShouldEqual, 500)
				convey.So(s.TotalSold, convey.ShouldEqual, 250)
				convey.So(s.SoldPercent.Value, convey.ShouldEqual, 50)
				convey.So(writer.has(model.CollectionBookings, "k49"), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a write fails transiently", func() {
			writer.fail("B", 2, errors.New("deadline on write"))
			done := make(chan error, 1)
			go func() { done <- pool.Run(ctx) }()

			_ = q.EnqueueWait(ctx, bookingJob("B", "5", "S", 3))
			_ = q.Close()

			convey.Convey("Then the retry succeeds and the row counts", func() {
				convey.So(<-done, convey.ShouldBeNil)
				convey.So(sink.committed, convey.ShouldResemble, []string{"B"})
				convey.So(writer.calls["B"], convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When a write keeps failing", func() {
			writer.fail("C", -1, errors.New("constraint violation"))
			done := make(chan error, 1)
			go func() { done <- pool.Run(ctx) }()

			_ = q.EnqueueWait(ctx, bookingJob("A", "100", "S", 2))
			_ = q.EnqueueWait(ctx, bookingJob("C", "7", "S", 3))
			_ = q.Close()
			err := <-done

			total := newBookingsAcc()
			_ = pool.Merge(total)

			convey.Convey("Then the row is rejected, excluded from totals, and the run continues", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(sink.rejected, convey.ShouldContainKey, "C")
				convey.So(sink.committed, convey.ShouldResemble, []string{"A"})
				convey.So(total.Finalize(decimal.NullDecimal{}).(*model.BookingsSummary).Total, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When the store is unavailable", func() {
			writer.fail("D", -1, fmt.Errorf("dial: %w", repository.ErrUnavailable))
			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			done := make(chan error, 1)
			go func() { done <- pool.Run(runCtx) }()

			_ = q.EnqueueWait(runCtx, bookingJob("D", "1", "S", 2))
			err := <-done

			convey.Convey("Then the pool stops with the fatal error after one attempt", func() {
				convey.So(errors.Is(err, repository.ErrUnavailable), convey.ShouldBeTrue)
				convey.So(writer.calls["D"], convey.ShouldEqual, 1)
				convey.So(sink.rejected, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the context is cancelled", func() {
			runCtx, cancel := context.WithCancel(ctx)
			done := make(chan error, 1)
			go func() { done <- pool.Run(runCtx) }()
			cancel()

			convey.Convey("Then Run returns the context error", func() {
				convey.So(errors.Is(<-done, context.Canceled), convey.ShouldBeTrue)
			})
		})
	})
}

func TestWorkerRateLimit(t *testing.T) {
	convey.Convey("Given a single worker with a write limiter", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue[worker.Job](queue.WithCapacity(10))
		writer := newFlakyWriter()
		w := worker.NewInMemoryWorker(q, writer, newBookingsAcc(),
			worker.WithName("limited"),
			worker.WithLimiter(rate.NewLimiter(rate.Limit(100), 1)),
		)

		for i := 0; i < 5; i++ {
			_ = q.Enqueue(context.Background(), bookingJob(fmt.Sprintf("r%d", i), "1", "S", i))
		}
		_ = q.Close()

		start := time.Now()
		err := w.Run(context.Background())
		elapsed := time.Since(start)

		convey.Convey("Then writes are spaced by the limiter", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(elapsed, convey.ShouldBeGreaterThanOrEqualTo, 35*time.Millisecond)
			s := w.Partial().Finalize(decimal.NullDecimal{}).(*model.BookingsSummary)
			convey.So(s.Total, convey.ShouldEqual, 5)
		})
	})
}
