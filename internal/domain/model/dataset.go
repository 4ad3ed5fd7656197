// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// Dataset names the kind of spreadsheet being ingested.
type Dataset string

// Known datasets.
const (
	Bookings  Dataset = "bookings"
	Proposals Dataset = "proposals"
)

// Logical collection names in the document store.
const (
	CollectionBookings      = "Bookings"
	CollectionProposals     = "Proposals"
	CollectionOverall       = "Overall"
	CollectionConstants     = "Constants"
	CollectionVerifications = "Verifications"
	CollectionIngestionRuns = "IngestionRuns"
	CollectionSessions      = "Sessions"
)

// Well-known documents and fields in the Constants collection.
const (
	ConstantsBookings = "bookings"
	ConstantsUsers    = "users"
	FieldTarget       = "target"
	FieldUserEmails   = "userEmails"
)

// ParseDataset resolves a dataset name case-insensitively.
func ParseDataset(s string) (Dataset, error) {
	switch Dataset(strings.ToLower(strings.TrimSpace(s))) {
	case Bookings:
		return Bookings, nil
	case Proposals:
		return Proposals, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDataset, s)
	}
}

// Collection returns the entity collection rows of this dataset are upserted into.
func (d Dataset) Collection() string {
	switch d {
	case Bookings:
		return CollectionBookings
	case Proposals:
		return CollectionProposals
	default:
		return ""
	}
}

// String implements fmt.Stringer.
func (d Dataset) String() string { return string(d) }

// RawRow maps a column header to its raw cell text. A missing key means the cell was absent.
type RawRow map[string]string

// Document is the schemaless value persisted by the store.
type Document map[string]any

// Entity is a mapped spreadsheet row ready to be upserted.
type Entity interface {
	// Key is the document id inside the dataset collection.
	Key() string
	Dataset() Dataset
	Document() Document
}
