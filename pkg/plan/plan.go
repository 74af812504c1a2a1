package plan

import (
	"time"

	"github.com/google/uuid"

	"github.com/meldworks/meld-installer/pkg/action"
)

// ReceiptVersion is the schema version of the persisted plan document.
// Loading a receipt with a different version fails rather than guessing.
const ReceiptVersion = 1

// Plan is the ordered, durable sequence of stateful actions assembled by a
// planner, together with the planner's identity and configuration snapshot.
// A plan exclusively owns its actions; no action is shared across plans.
type Plan struct {
	// Version is the receipt schema version, always ReceiptVersion for
	// newly created plans.
	Version int `json:"version"`

	// ID uniquely identifies this plan across persistence and the journal.
	ID string `json:"id"`

	// Planner is the tag of the planner that assembled the plan.
	Planner string `json:"planner"`

	// Settings is the planner's flat configuration snapshot, kept for
	// display and for diffing on later invocations.
	Settings map[string]any `json:"settings,omitempty"`

	// Actions is the ordered action list. Order is a strict total order
	// fixed at planning time.
	Actions []*action.StatefulAction `json:"actions"`

	// CreatedAt is when the planner assembled the plan.
	CreatedAt time.Time `json:"created_at"`
}

// New assembles a plan document from a planner's output.
func New(plannerTag string, settings map[string]any, actions []*action.StatefulAction) *Plan {
	return &Plan{
		Version:   ReceiptVersion,
		ID:        uuid.New().String(),
		Planner:   plannerTag,
		Settings:  settings,
		Actions:   actions,
		CreatedAt: time.Now().UTC(),
	}
}

// ExecuteDescriptions collects the forward explain output of every action,
// in plan order. It is pure and safe to call before anything has run.
func (p *Plan) ExecuteDescriptions() []action.Description {
	var descriptions []action.Description
	for _, sa := range p.Actions {
		descriptions = append(descriptions, sa.Action.ExecuteDescription()...)
	}
	return descriptions
}

// RevertDescriptions collects the reverse explain output of every action,
// in the reverse order an uninstall would run them.
func (p *Plan) RevertDescriptions() []action.Description {
	var descriptions []action.Description
	for i := len(p.Actions) - 1; i >= 0; i-- {
		descriptions = append(descriptions, p.Actions[i].Action.RevertDescription()...)
	}
	return descriptions
}

// StateCounts tallies actions by completion state, for status reporting.
func (p *Plan) StateCounts() map[action.State]int {
	counts := make(map[action.State]int)
	for _, sa := range p.Actions {
		counts[sa.State]++
	}
	return counts
}

// InProgress reports whether any action is stuck in the progress state,
// which indicates a crash mid-mutation on a previous invocation.
func (p *Plan) InProgress() bool {
	for _, sa := range p.Actions {
		if sa.State == action.StateProgress {
			return true
		}
	}
	return false
}
