package decoder

// Option applies a configuration option to the Excel decoder.
type Option func(*Excel)

// WithSheet reads the named sheet instead of the first one.
func WithSheet(name string) Option {
	return func(d *Excel) {
		d.sheet = name
	}
}

// WithMaxSize rejects workbooks larger than n bytes, compressed or unpacked.
func WithMaxSize(n int64) Option {
	return func(d *Excel) {
		if n > 0 {
			d.maxSize = n
		}
	}
}
