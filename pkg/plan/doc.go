// Package plan owns the install plan document and its execution.
//
// A Plan is an ordered sequence of stateful actions produced by a planner,
// plus the planner's identity and configuration snapshot. It is treated as a
// durable document, not transient memory: the ReceiptStore persists it with
// atomic-replace semantics after every single action state transition, so a
// crash at any point leaves a reloadable, revertible record and a reader
// never observes a torn mixture of old and new state.
//
// The Executor walks the plan strictly in order. On a forward failure it
// stops immediately and unwinds the already-completed prefix in reverse
// order, collecting revert failures instead of short-circuiting on them, and
// reports the original error and any unwind errors distinctly. Uninstall is
// the same unwind algorithm run over the whole reloaded plan. The executor
// never reorders, parallelizes, or skips actions; ordering correctness is
// the planner's responsibility.
package plan
