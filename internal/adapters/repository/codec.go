package repository

import (
	"encoding/json"
	"fmt"

	"github.com/okian/bizboard/internal/domain/model"
)

// encode renders a document in its stored JSON form.
func encode(doc model.Document) ([]byte, error) {
	if doc == nil {
		doc = model.Document{}
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return b, nil
}

// decode parses a stored document. Numbers come back as float64 and times as RFC 3339 strings,
// the same for every backend.
func decode(b []byte) (model.Document, error) {
	doc := model.Document{}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return doc, nil
}
