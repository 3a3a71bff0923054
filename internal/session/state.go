package session

// State is a step of a session's lifecycle.
type State int

const (
	Idle State = iota
	Streaming
	Finalizing
	Completed
	Failed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Streaming:
		return "streaming"
	case Finalizing:
		return "finalizing"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == Completed || s == Failed || s == Cancelled
}

// Mode selects how the final response is applied.
type Mode int

const (
	// ModeNewProject builds a project from scratch.
	ModeNewProject Mode = iota
	// ModeFollowUp edits an existing project.
	ModeFollowUp
)

func (m Mode) String() string {
	if m == ModeFollowUp {
		return "follow-up"
	}
	return "new-project"
}
