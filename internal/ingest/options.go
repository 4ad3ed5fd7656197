package ingest

import (
	"github.com/google/uuid"
	"github.com/okian/bizboard/internal/adapters/repository"
	"github.com/okian/bizboard/pkg/logger"
	"golang.org/x/time/rate"
)

// Default pipeline settings.
const (
	defaultWorkers           = 4
	defaultQueueSize         = 256
	defaultFailureSampleSize = 10
)

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithWorkers bounds concurrent row upserts.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithQueueSize bounds rows buffered between the decoder and the workers.
func WithQueueSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.queueSize = n
		}
	}
}

// WithWriteLimit caps store writes per second across all workers. A rate of zero disables it.
func WithWriteLimit(perSecond float64, burst int) Option {
	return func(p *Pipeline) {
		if perSecond <= 0 {
			p.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithRowRetry sets the retry policy for row upserts.
func WithRowRetry(rp repository.RetryPolicy) Option {
	return func(p *Pipeline) {
		p.rowRetry = rp
	}
}

// WithSummaryRetry sets the retry policy for the summary write.
func WithSummaryRetry(rp repository.RetryPolicy) Option {
	return func(p *Pipeline) {
		p.summaryRetry = rp
	}
}

// WithFailureSampleSize caps how many row failures a report keeps.
func WithFailureSampleSize(n int) Option {
	return func(p *Pipeline) {
		if n >= 0 {
			p.failureSamples = n
		}
	}
}

// WithRunIDs replaces the run id generator.
func WithRunIDs(next func() string) Option {
	return func(p *Pipeline) {
		if next != nil {
			p.nextID = next
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

func newRunID() string { return uuid.NewString() }
