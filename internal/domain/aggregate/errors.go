package aggregate

import "errors"

// Sentinel kinds for aggregation errors.
var (
	ErrDatasetMismatch = errors.New("entity does not belong to this dataset")
)
