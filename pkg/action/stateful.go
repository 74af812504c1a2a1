package action

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// StatefulAction pairs exactly one Action with its completion state. It is
// the unit of plan persistence and the single place idempotency is decided:
// TryExecute and TryRevert consult the state and skip work that is already
// logically done, so concrete actions only ever implement the unconditional
// mutation.
type StatefulAction struct {
	Action Action
	State  State
}

// New wraps an action in the uncompleted state.
func New(a Action) *StatefulAction {
	return &StatefulAction{Action: a, State: StateUncompleted}
}

// NewCompleted wraps an action pre-marked completed. Planners use this when
// the action's desired effect is already present on the system, which makes
// plans convergent rather than strictly procedural: executing them skips the
// step, and reverting them undoes the pre-existing state.
func NewCompleted(a Action) *StatefulAction {
	return &StatefulAction{Action: a, State: StateCompleted}
}

// Synopsis returns the wrapped action's one-line summary.
func (s *StatefulAction) Synopsis() string {
	return s.Action.Synopsis()
}

// TryExecute runs the action unless it is already completed. The state
// passes through progress while the mutation runs; on failure it stays in
// progress, signaling an unknown partial outcome for later diagnosis.
func (s *StatefulAction) TryExecute(ctx context.Context) error {
	if s.State == StateCompleted {
		return nil
	}

	s.State = StateProgress
	if err := s.Action.Execute(ctx); err != nil {
		return s.tagged(err)
	}
	s.State = StateCompleted
	return nil
}

// TryRevert undoes the action if and only if it is completed; any other
// state is a no-op. The state passes through progress and lands on
// uncompleted on success, making a reverted action indistinguishable from a
// never-executed one.
func (s *StatefulAction) TryRevert(ctx context.Context) error {
	if s.State != StateCompleted {
		return nil
	}

	s.State = StateProgress
	if err := s.Action.Revert(ctx); err != nil {
		return s.tagged(err)
	}
	s.State = StateUncompleted
	return nil
}

// tagged stamps the action tag onto escaping action errors so callers can
// attribute failures without holding a reference to the action.
func (s *StatefulAction) tagged(err error) error {
	var actionErr *Error
	if errors.As(err, &actionErr) && actionErr.Action == "" {
		actionErr.Action = s.Action.Tag()
	}
	return err
}

// statefulActionRecord is the persisted wire form of a StatefulAction.
type statefulActionRecord struct {
	Action json.RawMessage `json:"action"`
	State  State           `json:"state"`
}

// MarshalJSON encodes the wrapped action with its registry tag so the pair
// survives persistence in a heterogeneous ordered collection.
func (s *StatefulAction) MarshalJSON() ([]byte, error) {
	raw, err := Encode(s.Action)
	if err != nil {
		return nil, err
	}
	return json.Marshal(statefulActionRecord{Action: raw, State: s.State})
}

// UnmarshalJSON reconstructs the wrapped action through the registry.
func (s *StatefulAction) UnmarshalJSON(data []byte) error {
	var record statefulActionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return err
	}
	if !record.State.Valid() {
		return fmt.Errorf("invalid action state %q", record.State)
	}

	a, err := Decode(record.Action)
	if err != nil {
		return err
	}

	s.Action = a
	s.State = record.State
	return nil
}
