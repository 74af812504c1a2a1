package action

import "context"

// Description is one (headline, supporting reasons) pair of the structured
// explain output an action produces for dry-run and progress reporting.
type Description struct {
	// Headline is the short summary of what the step does.
	Headline string `json:"headline"`

	// Reasons are supporting explanations for why the step is needed.
	Reasons []string `json:"reasons,omitempty"`
}

// Action is a single idempotent, revertible, self-describing operating-system
// mutation. Concrete kinds (directory moves, systemd unit management, user
// provisioning) implement this interface and register a stable tag with
// Register; the plan executor only ever invokes the interface.
//
// Execute and Revert may block on filesystem calls or external processes and
// honor the passed context for those invocations. There is no mid-mutation
// cancellation contract: a call runs to completion or to a definitive error.
type Action interface {
	// Tag returns the stable string identifying this action kind. It must
	// match the tag the kind registered with Register.
	Tag() string

	// Synopsis returns a one-line human summary of the forward mutation.
	// It is pure and must not require Execute to have run.
	Synopsis() string

	// ExecuteDescription describes the forward mutation for explain output.
	ExecuteDescription() []Description

	// RevertDescription describes the inverse mutation for explain output.
	RevertDescription() []Description

	// Execute performs the mutation. It re-validates preconditions, creates
	// missing intermediate structure (such as parent directories), and uses
	// a single atomic OS operation for the core mutation where the platform
	// offers one.
	Execute(ctx context.Context) error

	// Revert performs the exact inverse mutation.
	Revert(ctx context.Context) error
}
