package plan

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/meldworks/meld-installer/pkg/action"
)

// noopTracer backs span creation when no tracer is attached, so the
// executor code path is identical with and without tracing.
var noopTracer = noop.NewTracerProvider().Tracer("meld-installer")

func (e *Executor) startSpan(ctx context.Context, operation string, p *Plan) (context.Context, trace.Span) {
	if e.tracer == nil {
		return noopTracer.Start(ctx, operation)
	}
	return e.tracer.StartPlanSpan(ctx, operation, p.ID, p.Planner)
}

func (e *Executor) startActionSpan(ctx context.Context, operation string, p *Plan, sa *action.StatefulAction) (context.Context, trace.Span) {
	if e.tracer == nil {
		return noopTracer.Start(ctx, operation)
	}
	return e.tracer.StartActionSpan(ctx, operation, p.ID, sa.Action.Tag(), sa.Synopsis())
}
