package pool

// Phase is the lifecycle phase of a pool.
type Phase int32

const (
	PhaseInitializing Phase = iota
	PhaseReady
	PhaseInitFailed
	PhaseClosing
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "INITIALIZING"
	case PhaseReady:
		return "READY"
	case PhaseInitFailed:
		return "INIT_FAILED"
	case PhaseClosing:
		return "CLOSING"
	}
	return "UNKNOWN"
}

// State is the lifecycle state of a pooled connection.
type State int32

const (
	StateOpen State = iota
	StateTrashed
	StateResurrecting
	StateGone
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateTrashed:
		return "TRASHED"
	case StateResurrecting:
		return "RESURRECTING"
	case StateGone:
		return "GONE"
	}
	return "UNKNOWN"
}
