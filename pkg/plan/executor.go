package plan

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/meldworks/meld-installer/pkg/action"
	"github.com/meldworks/meld-installer/pkg/telemetry"
)

// TransitionRecorder receives every action state transition for diagnostic
// journaling. Recording failures are logged and otherwise ignored; the
// journal is a side channel, never the source of truth.
type TransitionRecorder interface {
	RecordTransition(ctx context.Context, planID, actionTag, synopsis string, state action.State, transitionErr error) error
}

// Executor runs a plan forward and, on failure, unwinds it. It exclusively
// owns the plan for the duration of a pass and persists the plan after every
// state transition, bounding the blast radius of a crash to one action's
// worth of ambiguity.
type Executor struct {
	store    *ReceiptStore
	log      zerolog.Logger
	tracer   *telemetry.Tracer
	recorder TransitionRecorder
}

// NewExecutor creates an executor persisting through the given store.
func NewExecutor(store *ReceiptStore, log zerolog.Logger) *Executor {
	return &Executor{store: store, log: log}
}

// WithTracer attaches a tracer; each plan pass and each action become spans.
func (e *Executor) WithTracer(tracer *telemetry.Tracer) *Executor {
	e.tracer = tracer
	return e
}

// WithRecorder attaches a transition journal.
func (e *Executor) WithRecorder(recorder TransitionRecorder) *Executor {
	e.recorder = recorder
	return e
}

// UnwindError is a single failed reversion during unwind or uninstall.
type UnwindError struct {
	// Index is the zero-based position of the action in the plan.
	Index int

	// Synopsis is the action's one-line summary.
	Synopsis string

	// Err is the revert failure.
	Err error
}

func (u *UnwindError) Error() string {
	return fmt.Sprintf("failed to revert action %d (%s): %v", u.Index+1, u.Synopsis, u.Err)
}

func (u *UnwindError) Unwrap() error {
	return u.Err
}

// InstallError reports a forward failure together with the outcome of the
// unwind it triggered. An empty UnwindErrors means every completed action
// was reverted; a non-empty one is the more severe outcome, implying manual
// remediation.
type InstallError struct {
	// Index is the zero-based position of the failed action.
	Index int

	// Total is the number of actions in the plan.
	Total int

	// Synopsis is the failed action's one-line summary.
	Synopsis string

	// Cause is the original forward error.
	Cause error

	// UnwindErrors holds any reversion failures, in unwind order.
	UnwindErrors []*UnwindError
}

func (e *InstallError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "action %d of %d (%s) failed: %v", e.Index+1, e.Total, e.Synopsis, e.Cause)
	if len(e.UnwindErrors) == 0 {
		b.WriteString("; all completed actions were reverted")
	} else {
		fmt.Fprintf(&b, "; %d completed action(s) failed to revert — manual remediation required:", len(e.UnwindErrors))
		for _, u := range e.UnwindErrors {
			fmt.Fprintf(&b, "\n  %v", u)
		}
	}
	return b.String()
}

func (e *InstallError) Unwrap() error {
	return e.Cause
}

// UninstallError reports reversion failures during a full revert. Reversion
// continues past individual failures, so this collects everything that
// could not be undone.
type UninstallError struct {
	Errors []*UnwindError
}

func (e *UninstallError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d action(s) failed to revert — manual remediation required:", len(e.Errors))
	for _, u := range e.Errors {
		fmt.Fprintf(&b, "\n  %v", u)
	}
	return b.String()
}

// InProgressError refuses execution of a plan that recorded a crash
// mid-mutation. Recovery is an operator decision, not an engine policy.
type InProgressError struct {
	Receipt string
}

func (e *InProgressError) Error() string {
	return fmt.Sprintf("plan %s contains an action whose last outcome is unknown", e.Receipt)
}

// Guidance implements the expected-error capability.
func (e *InProgressError) Guidance() string {
	return "A previous run was interrupted while an action was executing. " +
		"Inspect the system, then run `meld-installer uninstall` to revert the completed actions before reinstalling."
}

// Install executes the plan forward. The plan is persisted before the first
// action and after every state transition. On any action failure the
// forward pass stops, the already-completed prefix is unwound in strict
// reverse order, and the returned InstallError reports both the forward
// failure and any unwind failures.
func (e *Executor) Install(ctx context.Context, p *Plan) error {
	if p.InProgress() {
		return &InProgressError{Receipt: e.store.Path()}
	}

	ctx, span := e.startSpan(ctx, "plan.install", p)
	defer span.End()

	if err := e.store.Save(p); err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	total := len(p.Actions)
	for i, sa := range p.Actions {
		log := e.log.With().Int("action", i+1).Int("of", total).Str("tag", sa.Action.Tag()).Logger()

		if sa.State == action.StateCompleted {
			log.Debug().Msg(sa.Synopsis() + " (already complete, skipping)")
			continue
		}
		log.Info().Msg(sa.Synopsis())

		actionCtx, actionSpan := e.startActionSpan(ctx, "action.execute", p, sa)
		execErr := sa.TryExecute(actionCtx)
		e.record(ctx, p, sa, execErr)

		if saveErr := e.store.Save(p); saveErr != nil {
			if execErr == nil {
				// A plan whose progress cannot be persisted is not safe to
				// continue; treat it like a forward failure so the completed
				// prefix is unwound.
				execErr = saveErr
			} else {
				log.Warn().Err(saveErr).Msg("Failed to persist plan state after action failure")
			}
		}

		if execErr != nil {
			telemetry.RecordError(actionSpan, execErr)
			actionSpan.End()
			log.Error().Err(execErr).Msg("Action failed, reverting completed actions")

			// The forward failure may be the cancellation itself (SIGINT);
			// reversion still has to run, so detach the unwind from the
			// caller's cancellation.
			unwindErrs := e.unwind(context.WithoutCancel(ctx), p, i)
			installErr := &InstallError{
				Index:        i,
				Total:        total,
				Synopsis:     sa.Synopsis(),
				Cause:        execErr,
				UnwindErrors: unwindErrs,
			}
			telemetry.RecordError(span, installErr)
			return installErr
		}

		telemetry.RecordSuccess(actionSpan)
		actionSpan.End()
	}

	telemetry.RecordSuccess(span)
	return nil
}

// Uninstall reverts every action in reverse order from the end, independent
// of any forward pass, and deletes the receipt once everything is undone.
func (e *Executor) Uninstall(ctx context.Context, p *Plan) error {
	ctx, span := e.startSpan(ctx, "plan.uninstall", p)
	defer span.End()

	if errs := e.unwind(ctx, p, len(p.Actions)-1); len(errs) > 0 {
		err := &UninstallError{Errors: errs}
		telemetry.RecordError(span, err)
		return err
	}

	if err := e.store.Delete(); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	telemetry.RecordSuccess(span)
	return nil
}

// unwind reverts actions from (zero-based) index from down to 0, collecting
// failures instead of stopping on them: the engine attempts best-effort
// reversal of everything it touched. The plan is persisted after every
// transition.
func (e *Executor) unwind(ctx context.Context, p *Plan, from int) []*UnwindError {
	var errs []*UnwindError

	for i := from; i >= 0; i-- {
		sa := p.Actions[i]
		if sa.State != action.StateCompleted {
			continue
		}

		log := e.log.With().Int("action", i+1).Str("tag", sa.Action.Tag()).Logger()
		log.Info().Msg("Reverting: " + sa.Synopsis())

		actionCtx, actionSpan := e.startActionSpan(ctx, "action.revert", p, sa)
		revertErr := sa.TryRevert(actionCtx)
		e.record(ctx, p, sa, revertErr)

		if saveErr := e.store.Save(p); saveErr != nil {
			log.Warn().Err(saveErr).Msg("Failed to persist plan state during unwind")
			if revertErr == nil {
				revertErr = saveErr
			}
		}

		if revertErr != nil {
			telemetry.RecordError(actionSpan, revertErr)
			log.Error().Err(revertErr).Msg("Failed to revert action")
			errs = append(errs, &UnwindError{Index: i, Synopsis: sa.Synopsis(), Err: revertErr})
		} else {
			telemetry.RecordSuccess(actionSpan)
		}
		actionSpan.End()
	}

	return errs
}

func (e *Executor) record(ctx context.Context, p *Plan, sa *action.StatefulAction, transitionErr error) {
	if e.recorder == nil {
		return
	}
	err := e.recorder.RecordTransition(ctx, p.ID, sa.Action.Tag(), sa.Synopsis(), sa.State, transitionErr)
	if err != nil {
		e.log.Warn().Err(err).Msg("Failed to record transition in journal")
	}
}
