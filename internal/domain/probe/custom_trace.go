package probe

import (
	"context"

	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/tracing"
)

const (
	CustomTraceID      = "4bf92f3577b34da6a3ce929d0e0e4736"
	CustomSpanID       = "00f067aa0ba902b7"
	NestedTraceID      = "4bf92f3577b34da6a3ce929d0e0e0000"
	NestedSpanID       = "00f067aa0ba902b0"
	scopedSpanName     = "new span1"
	stepOriginal       = "original"
	stepScoped         = "scoped span"
	stepCustom         = "custom"
	stepRestored       = "restored"
	stepNested         = "nested custom"
	stepNestedOriginal = "nested original"
)

// Step is one observation of the ids in scope
type Step struct {
	Step    string `json:"step"`
	TraceID string `json:"trace_id"`
	SpanID  string `json:"span_id"`
}

// CustomTrace shows how the ids change as spans start and custom contexts
// are entered and left.
func (f *Flows) CustomTrace(ctx context.Context, tracer *tracing.Tracer) ([]Step, error) {
	var steps []Step
	record := func(ctx context.Context, step, msg string) {
		f.logger.For(ctx).Info(msg)
		steps = append(steps, Step{
			Step:    step,
			TraceID: tracing.GetTraceID(ctx),
			SpanID:  tracing.GetSpanID(ctx),
		})
	}

	orgTraceID := tracing.GetTraceID(ctx)
	orgSpanID := tracing.GetSpanID(ctx)
	record(ctx, stepOriginal, "current trace and span id")

	// The scoped span stays current for the rest of the probe.
	span, ctx := tracer.StartSpan(ctx, scopedSpanName)
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()
	record(ctx, stepScoped, "only the span id changes after starting a scoped span")

	custom, err := tracing.WithSpanContext(ctx, CustomTraceID, CustomSpanID, false)
	if err != nil {
		return nil, err
	}
	record(custom, stepCustom, "now using custom trace id and span id")

	record(ctx, stepRestored, "original trace id is back")

	nested, err := tracing.WithSpanContext(ctx, NestedTraceID, NestedSpanID, false)
	if err != nil {
		return nil, err
	}
	record(nested, stepNested, "now using custom trace id and span id")

	if orgTraceID != "" {
		inner, err := tracing.WithSpanContext(nested, orgTraceID, orgSpanID, false)
		if err != nil {
			return nil, err
		}
		record(inner, stepNestedOriginal, "now using original trace id inside custom scope")
	}

	record(ctx, stepRestored, "original trace id is back")
	return steps, nil
}
