// Package repository defines the document store gateway and its backends.
//
// A store is a flat keyspace of schemaless documents grouped by collection.
// Writes are full overwrites; there are no cross-document transactions.
package repository

import (
	"context"

	"github.com/okian/bizboard/internal/domain/model"
)

// Store provides keyed access to documents.
type Store interface {
	// Get returns the document at collection/key. ok is false when it does not exist.
	Get(ctx context.Context, collection, key string) (doc model.Document, ok bool, err error)

	// Set overwrites the document at collection/key.
	Set(ctx context.Context, collection, key string, doc model.Document) error

	// Delete removes the document at collection/key. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, key string) error

	// Close releases the backend. Further calls fail with ErrUnavailable.
	Close() error
}
