package tracing

import (
	"context"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Legacy propagation headers, kept for callers that predate traceparent.
const (
	TraceIDHeader = "X-Trace-ID"
	SpanIDHeader  = "X-Span-ID"
)

// legacyPropagator reads and writes the X-Trace-ID / X-Span-ID pair.
type legacyPropagator struct{}

var _ propagation.TextMapPropagator = legacyPropagator{}

func (legacyPropagator) Inject(ctx context.Context, carrier propagation.TextMapCarrier) {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return
	}
	carrier.Set(TraceIDHeader, sc.TraceID().String())
	carrier.Set(SpanIDHeader, sc.SpanID().String())
}

func (legacyPropagator) Extract(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	tid, err := trace.TraceIDFromHex(carrier.Get(TraceIDHeader))
	if err != nil {
		return ctx
	}
	sid, err := trace.SpanIDFromHex(carrier.Get(SpanIDHeader))
	if err != nil {
		return ctx
	}
	return trace.ContextWithRemoteSpanContext(ctx, trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    tid,
		SpanID:     sid,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	}))
}

func (legacyPropagator) Fields() []string {
	return []string{TraceIDHeader, SpanIDHeader}
}

// Extraction runs in order, so traceparent overrides the legacy headers.
var propagator = propagation.NewCompositeTextMapPropagator(
	legacyPropagator{},
	propagation.TraceContext{},
)

// Propagator returns the composite W3C + legacy header propagator
func Propagator() propagation.TextMapPropagator {
	return propagator
}

// Inject writes the span context in ctx to carrier
func Inject(ctx context.Context, carrier propagation.TextMapCarrier) {
	propagator.Inject(ctx, carrier)
}

// Extract returns ctx carrying the remote span context found in carrier
func Extract(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return propagator.Extract(ctx, carrier)
}

// InjectTraceContext injects trace context into headers
func InjectTraceContext(ctx context.Context, headers map[string]string) {
	Inject(ctx, propagation.MapCarrier(headers))
}

// ExtractTraceContext extracts trace context from headers
func ExtractTraceContext(ctx context.Context, headers map[string]string) context.Context {
	return Extract(ctx, propagation.MapCarrier(headers))
}
