package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"
)

type spanKey struct{}

// SpanFromContext returns the span started in ctx by StartSpan, if any
func SpanFromContext(ctx context.Context) *Span {
	if ctx == nil {
		return nil
	}
	span, _ := ctx.Value(spanKey{}).(*Span)
	return span
}

// SpanContextFrom returns the span context carried by ctx
func SpanContextFrom(ctx context.Context) trace.SpanContext {
	if ctx == nil {
		return trace.SpanContext{}
	}
	return trace.SpanContextFromContext(ctx)
}

// GetTraceID retrieves the hex trace ID from context, or ""
func GetTraceID(ctx context.Context) string {
	sc := SpanContextFrom(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// GetSpanID retrieves the hex span ID from context, or ""
func GetSpanID(ctx context.Context) string {
	sc := SpanContextFrom(ctx)
	if !sc.HasSpanID() {
		return ""
	}
	return sc.SpanID().String()
}

// TraceParent returns "<traceId>-<spanId>" for the current span, or ""
func TraceParent(ctx context.Context) string {
	sc := SpanContextFrom(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String() + "-" + sc.SpanID().String()
}

// ContextWithSpan re-enters a previously captured span context. The span
// started in the parent ctx, if any, is hidden from SpanFromContext.
func ContextWithSpan(ctx context.Context, sc trace.SpanContext) context.Context {
	ctx = context.WithValue(ctx, spanKey{}, (*Span)(nil))
	return trace.ContextWithSpanContext(ctx, sc)
}

// WithSpanContext installs caller-chosen trace and span ids in ctx.
func WithSpanContext(ctx context.Context, traceIDHex, spanIDHex string, sampled bool) (context.Context, error) {
	tid, err := trace.TraceIDFromHex(traceIDHex)
	if err != nil {
		return ctx, fmt.Errorf("invalid trace id %q: %w", traceIDHex, err)
	}
	sid, err := trace.SpanIDFromHex(spanIDHex)
	if err != nil {
		return ctx, fmt.Errorf("invalid span id %q: %w", spanIDHex, err)
	}

	var flags trace.TraceFlags
	if sampled {
		flags = trace.FlagsSampled
	}

	return ContextWithSpan(ctx, trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    tid,
		SpanID:     sid,
		TraceFlags: flags,
	})), nil
}
