// Package trigger turns files dropped into bucket directories into pipeline runs.
//
// Create and write notifications are debounced per path, the settled file is
// fingerprinted by path, size and modification time so an unchanged file is
// ingested once, and runs are handed to the pipeline one at a time.
package trigger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/okian/bizboard/internal/adapters/mq/queue"
	"github.com/okian/bizboard/internal/domain/dedupe"
	"github.com/okian/bizboard/internal/domain/model"
	"github.com/okian/bizboard/internal/ingest"
	"github.com/okian/bizboard/pkg/logger"
	"github.com/okian/bizboard/pkg/metrics"
)

// Runner executes one ingestion run.
type Runner interface {
	Run(ctx context.Context, t ingest.Trigger) (*ingest.Report, error)
}

type pending struct {
	trigger     ingest.Trigger
	fingerprint string
}

// Watcher watches bucket directories.
type Watcher struct {
	runner    Runner
	buckets   map[string]model.Dataset
	settle    time.Duration
	queueSize int
	seen      dedupe.Deduper
	logger    logger.Logger

	mu      sync.Mutex
	timers  map[string]*time.Timer
	fsw     *fsnotify.Watcher
	queue   *queue.InMemoryQueue[pending]
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// New creates a Watcher feeding runner.
func New(runner Runner, opts ...Option) *Watcher {
	w := &Watcher{
		runner:    runner,
		buckets:   make(map[string]model.Dataset),
		settle:    defaultSettle,
		queueSize: defaultQueueSize,
		timers:    make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.seen == nil {
		w.seen = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(defaultSeenSize))
	}
	if w.logger == nil {
		w.logger = logger.Get().Named("watcher")
	}
	return w
}

// Start creates missing bucket directories, queues files already present and begins watching.
func (w *Watcher) Start(ctx context.Context) error {
	runCtx, err := w.open(ctx)
	if err != nil {
		return err
	}
	for dir, d := range w.buckets {
		w.scan(runCtx, dir, d)
	}
	w.logger.Info(ctx, "watching buckets", logger.Int("buckets", len(w.buckets)), logger.Duration("settle", w.settle))
	return nil
}

func (w *Watcher) open(ctx context.Context) (context.Context, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return nil, ErrStarted
	}
	if len(w.buckets) == 0 {
		return nil, ErrNoDirs
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	for dir := range w.buckets {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("create bucket %s: %w", dir, err)
		}
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watch bucket %s: %w", dir, err)
		}
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w.fsw = fsw
	w.cancel = cancel
	w.queue = queue.NewInMemoryQueue[pending](queue.WithCapacity(w.queueSize), queue.WithName("triggers"))
	w.started = true

	w.wg.Add(2)
	go w.watch(runCtx)
	go w.consume(runCtx)
	return runCtx, nil
}

// Stop stops watching, abandons queued triggers and waits for the current run to return.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = false
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	err := w.fsw.Close()
	_ = w.queue.Close()
	w.cancel()
	w.mu.Unlock()

	w.wg.Wait()
	return err
}

// Pending returns the number of queued triggers.
func (w *Watcher) Pending(ctx context.Context) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.queue == nil {
		return 0
	}
	return w.queue.Len(ctx)
}

func (w *Watcher) scan(ctx context.Context, dir string, d model.Dataset) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.logger.Warn(ctx, "bucket scan failed", logger.String("dir", dir), logger.Error(err))
		return
	}
	for _, e := range entries {
		if e.Type().IsRegular() && ingest.Accepts(e.Name()) {
			w.schedule(ctx, filepath.Join(dir, e.Name()), d)
		}
	}
}

func (w *Watcher) watch(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ctx, ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			metrics.RecordTriggerEvent(ingest.SourceWatcher, "error")
			w.logger.Error(ctx, "watch error", logger.Error(err))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	d, ok := w.buckets[filepath.Dir(ev.Name)]
	if !ok {
		return
	}
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		w.mu.Lock()
		if t, ok := w.timers[ev.Name]; ok {
			t.Stop()
			delete(w.timers, ev.Name)
		}
		w.mu.Unlock()
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		if !ingest.Accepts(ev.Name) {
			metrics.RecordTriggerEvent(ingest.SourceWatcher, "ignored")
			return
		}
		w.schedule(ctx, ev.Name, d)
	}
}

// schedule (re)arms the settle timer for path.
func (w *Watcher) schedule(ctx context.Context, path string, d model.Dataset) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.timers[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.settled(ctx, path, d)
	})
}

func (w *Watcher) settled(ctx context.Context, path string, d model.Dataset) {
	if ctx.Err() != nil {
		return
	}
	t, err := ingest.FileTrigger(d, path, ingest.SourceWatcher)
	if err != nil {
		w.logger.Debug(ctx, "settled file vanished", logger.String("path", path), logger.Error(err))
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	fp := fingerprint(path, info)
	if w.seen.SeenAndRecord(ctx, fp) {
		metrics.RecordTriggerEvent(ingest.SourceWatcher, "duplicate")
		return
	}
	if !w.queue.Enqueue(ctx, pending{trigger: t, fingerprint: fp}) {
		// An unchanged file raises no further events, so try again after another settle period.
		w.seen.Unrecord(ctx, fp)
		metrics.RecordTriggerEvent(ingest.SourceWatcher, "deferred")
		w.logger.Warn(ctx, "trigger queue full, file deferred", logger.String("path", path))
		w.schedule(ctx, path, d)
		return
	}
	metrics.RecordTriggerEvent(ingest.SourceWatcher, "accepted")
}

func (w *Watcher) consume(ctx context.Context) {
	defer w.wg.Done()
	for p := range w.queue.Dequeue(ctx) {
		rep, err := w.runner.Run(ctx, p.trigger)
		if err != nil {
			// Let the next notification for the same file retry it.
			w.seen.Unrecord(ctx, p.fingerprint)
			w.logger.Error(ctx, "watched file failed", logger.String("file", p.trigger.Name), logger.Error(err))
			continue
		}
		w.logger.Info(ctx, "watched file ingested",
			logger.String("file", p.trigger.Name),
			logger.String("run_id", rep.RunID),
			logger.Int64("rows_upserted", rep.RowsUpserted),
		)
	}
}

func fingerprint(path string, info os.FileInfo) string {
	return fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())
}
