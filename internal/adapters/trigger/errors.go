package trigger

import "errors"

var (
	// ErrNoDirs is returned by Start when no bucket directory was configured.
	ErrNoDirs = errors.New("no bucket directories configured")
	// ErrStarted is returned by a second Start.
	ErrStarted = errors.New("watcher already started")
)
