// Package action defines the contract every installer mutation must satisfy
// and the machinery that makes heterogeneous mutations uniform: a small
// Action interface, a completion state tag, a StatefulAction wrapper that
// gates execution and reversion on that tag, a tag registry for
// reconstructing actions from persisted plans, and the error taxonomy
// produced by filesystem and process interactions.
//
// The rules every implementation must follow:
//
//   - Planning never mutates the target system. All side effects happen in
//     Execute and Revert.
//   - Execute re-validates its preconditions. Plans are persisted and may be
//     resumed long after planning, so the system may have changed underneath.
//   - Revert performs the exact inverse of Execute, re-validating the
//     inverse preconditions.
//   - Actions register a stable string tag via Register so a persisted plan
//     can be decoded without prior knowledge of which kinds it contains.
//
// Idempotency is not an action's concern. StatefulAction decides whether an
// action logically needs to run; the action itself only ever implements the
// unconditional mutation.
package action
