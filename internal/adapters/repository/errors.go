package repository

import "errors"

// Sentinel kinds for store errors.
var (
	// ErrNotFound is returned by helpers that require a document to exist.
	ErrNotFound = errors.New("document not found")
	// ErrUnavailable means the backend cannot be reached at all. Retrying will not help.
	ErrUnavailable = errors.New("store unavailable")
	// ErrInvalidDocument means a document could not be encoded or decoded.
	ErrInvalidDocument = errors.New("invalid document")
)
