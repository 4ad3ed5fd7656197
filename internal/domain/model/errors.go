package model

import "errors"

// Sentinel kinds for model errors.
var (
	ErrUnknownDataset = errors.New("unknown dataset")
)
