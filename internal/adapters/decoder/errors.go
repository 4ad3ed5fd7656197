package decoder

import "errors"

// Sentinel kinds for decoder errors.
var (
	// ErrDecodeFatal means the input is not a readable workbook. The run cannot continue.
	ErrDecodeFatal = errors.New("decode fatal")
	// ErrClosed is returned by Next after Close.
	ErrClosed = errors.New("row stream closed")
)
