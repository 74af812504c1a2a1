package action

// State is the completion state attached to every planned action instance.
type State string

const (
	// StateUncompleted means the action has never executed (or was fully
	// reverted). Reverting an uncompleted action is a no-op.
	StateUncompleted State = "uncompleted"

	// StateProgress means execution or reversion started but its outcome is
	// unknown. A persisted plan containing a progress action indicates a
	// crash mid-mutation and requires operator attention; the engine never
	// auto-resumes from it.
	StateProgress State = "progress"

	// StateCompleted means execute succeeded. It is the only state from
	// which a revert proceeds to completion. Executing a completed action is
	// a no-op.
	StateCompleted State = "completed"
)

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	switch s {
	case StateUncompleted, StateProgress, StateCompleted:
		return true
	}
	return false
}

func (s State) String() string {
	return string(s)
}
