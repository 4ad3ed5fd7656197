package worker

import (
	"github.com/okian/bizboard/internal/adapters/repository"
	"github.com/okian/bizboard/pkg/logger"
	"golang.org/x/time/rate"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithLimiter throttles store writes. Share one limiter between workers to cap the pool as a whole.
func WithLimiter(l *rate.Limiter) Option {
	return func(w *InMemoryWorker) {
		w.limiter = l
	}
}

// WithRetryPolicy sets the retry policy for row upserts.
func WithRetryPolicy(p repository.RetryPolicy) Option {
	return func(w *InMemoryWorker) {
		w.retry = p
	}
}

// WithSink receives row outcomes.
func WithSink(s Sink) Option {
	return func(w *InMemoryWorker) {
		if s != nil {
			w.sink = s
		}
	}
}
