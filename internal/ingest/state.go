package ingest

// State is the lifecycle position of a run.
type State string

// Run states. Failed is reachable from every state but Idle.
const (
	StateIdle        State = "idle"
	StateDownloading State = "downloading"
	StateStreaming   State = "streaming"
	StateFinalizing  State = "finalizing"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
