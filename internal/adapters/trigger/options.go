package trigger

import (
	"path/filepath"
	"time"

	"github.com/okian/bizboard/internal/domain/dedupe"
	"github.com/okian/bizboard/internal/domain/model"
	"github.com/okian/bizboard/pkg/logger"
)

const (
	defaultSettle    = 500 * time.Millisecond
	defaultQueueSize = 64
	defaultSeenSize  = 4096
)

// Option applies a configuration option to the Watcher.
type Option func(*Watcher)

// WithBucket watches dir for files of dataset d.
func WithBucket(d model.Dataset, dir string) Option {
	return func(w *Watcher) {
		if dir != "" {
			w.buckets[filepath.Clean(dir)] = d
		}
	}
}

// WithSettle sets how long a file must stay unchanged before it is ingested.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithQueueSize bounds the triggers waiting for the pipeline.
func WithQueueSize(n int) Option {
	return func(w *Watcher) {
		if n > 0 {
			w.queueSize = n
		}
	}
}

// WithDeduper replaces the fingerprint deduper.
func WithDeduper(d dedupe.Deduper) Option {
	return func(w *Watcher) {
		if d != nil {
			w.seen = d
		}
	}
}

// WithLogger sets the watcher logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}
