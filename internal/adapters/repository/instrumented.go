package repository

import (
	"context"
	"time"

	"github.com/okian/bizboard/internal/domain/model"
	"github.com/okian/bizboard/pkg/metrics"
)

// Instrumented wraps a store and records read/write latency and write errors.
type Instrumented struct {
	Store
}

// NewInstrumented decorates s with metrics.
func NewInstrumented(s Store) *Instrumented {
	return &Instrumented{Store: s}
}

// Get implements Store.
func (s *Instrumented) Get(ctx context.Context, collection, key string) (model.Document, bool, error) {
	start := time.Now()
	doc, ok, err := s.Store.Get(ctx, collection, key)
	metrics.RecordStoreReadLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordErrorByComponent("store", "read")
	}
	return doc, ok, err
}

// Set implements Store.
func (s *Instrumented) Set(ctx context.Context, collection, key string, doc model.Document) error {
	start := time.Now()
	err := s.Store.Set(ctx, collection, key, doc)
	metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordStoreWriteError()
		metrics.RecordErrorByComponent("store", "write")
	}
	return err
}

// Delete implements Store.
func (s *Instrumented) Delete(ctx context.Context, collection, key string) error {
	start := time.Now()
	err := s.Store.Delete(ctx, collection, key)
	metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordStoreWriteError()
		metrics.RecordErrorByComponent("store", "delete")
	}
	return err
}
