package repository

import (
	"time"

	"github.com/okian/bizboard/pkg/logger"
)

// Default backend settings.
const (
	defaultTable        = "documents"
	defaultMaxOpenConns = 4
	defaultBusyTimeout  = 5 * time.Second
)

type options struct {
	table        string
	maxOpenConns int
	busyTimeout  time.Duration
	logger       logger.Logger
}

func newOptions(opts []Option) options {
	o := options{
		table:        defaultTable,
		maxOpenConns: defaultMaxOpenConns,
		busyTimeout:  defaultBusyTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get().Named("store")
	}
	return o
}

// Option applies a configuration option to a SQL-backed store.
type Option func(*options)

// WithTable sets the documents table name. Only [A-Za-z0-9_] names are accepted.
func WithTable(name string) Option {
	return func(o *options) {
		if validIdent(name) {
			o.table = name
		}
	}
}

// WithMaxOpenConns bounds the number of open connections.
func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxOpenConns = n
		}
	}
}

// WithBusyTimeout sets how long sqlite waits on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.busyTimeout = d
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
