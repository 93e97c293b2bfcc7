package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedTracer(t *testing.T, opts ...Option) (*Tracer, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return New("test-service", zap.New(core), opts...), logs
}

func TestStartSpanRoot(t *testing.T) {
	tracer, _ := newObservedTracer(t)
	defer tracer.Close()

	span, ctx := tracer.StartSpan(context.Background(), "root")

	assert.True(t, span.TraceID.IsValid())
	assert.True(t, span.SpanID.IsValid())
	assert.False(t, span.ParentID.IsValid())
	assert.True(t, span.Flags.IsSampled())
	assert.Equal(t, "test-service", span.Service)

	assert.Equal(t, span.TraceID.String(), GetTraceID(ctx))
	assert.Equal(t, span.SpanID.String(), GetSpanID(ctx))
	assert.Same(t, span, SpanFromContext(ctx))
}

func TestStartSpanChild(t *testing.T) {
	tracer, _ := newObservedTracer(t)
	defer tracer.Close()

	parent, ctx := tracer.StartSpan(context.Background(), "parent")
	child, childCtx := tracer.StartSpan(ctx, "child")

	assert.Equal(t, parent.TraceID, child.TraceID)
	assert.Equal(t, parent.SpanID, child.ParentID)
	assert.NotEqual(t, parent.SpanID, child.SpanID)

	// parent ctx is unchanged
	assert.Equal(t, parent.SpanID.String(), GetSpanID(ctx))
	assert.Equal(t, child.SpanID.String(), GetSpanID(childCtx))
}

func TestStartSpanNilContext(t *testing.T) {
	tracer, _ := newObservedTracer(t)
	defer tracer.Close()

	//nolint:staticcheck // nil ctx is tolerated
	span, ctx := tracer.StartSpan(nil, "orphan")
	assert.NotNil(t, ctx)
	assert.True(t, span.TraceID.IsValid())
}

func TestSubmitLogsSpan(t *testing.T) {
	tracer, logs := newObservedTracer(t)

	span, ctx := tracer.StartSpan(context.Background(), "ok")
	span.SetTag("k", "v")
	span.Finish()
	tracer.Submit(span)

	failed, _ := tracer.StartSpan(ctx, "failed")
	failed.Log("retrying", map[string]interface{}{"attempt": 2})
	failed.SetError(errors.New("boom"))
	failed.Finish()
	tracer.Submit(failed)

	tracer.Close()

	completed := logs.FilterMessage("span completed").All()
	require.Len(t, completed, 1)
	fields := completed[0].ContextMap()
	assert.Equal(t, span.TraceID.String(), fields["trace_id"])
	assert.Equal(t, "ok", fields["operation"])
	assert.Equal(t, "test-service", fields["service"])
	assert.NotContains(t, fields, "logs")

	withErr := logs.FilterMessage("span completed with error").All()
	require.Len(t, withErr, 1)
	errFields := withErr[0].ContextMap()
	assert.Equal(t, span.SpanID.String(), errFields["parent_id"])
	assert.Equal(t, "boom", errFields["error"])
	assert.EqualValues(t, 500, errFields["status"])

	spanLogs, ok := errFields["logs"].([]LogEntry)
	require.True(t, ok, "span logs are emitted")
	require.Len(t, spanLogs, 1)
	assert.Equal(t, "retrying", spanLogs[0].Message)
	assert.Equal(t, 2, spanLogs[0].Fields["attempt"])
	assert.False(t, spanLogs[0].Timestamp.IsZero())
}

func TestSubmitAfterCloseDrops(t *testing.T) {
	tracer, logs := newObservedTracer(t, WithBuffer(4))
	tracer.Close()
	tracer.Close()

	span, _ := tracer.StartSpan(context.Background(), "late")
	tracer.Submit(span)
	tracer.Submit(nil)

	assert.EqualValues(t, 1, tracer.Dropped())
	assert.Equal(t, 1, logs.FilterMessage("tracer closed, dropping span").Len())
}

func TestTraceParent(t *testing.T) {
	assert.Empty(t, TraceParent(context.Background()))
	assert.Empty(t, GetTraceID(context.Background()))
	assert.Empty(t, GetSpanID(context.Background()))

	ctx, err := WithSpanContext(context.Background(),
		"4bf92f3577b34da6a3ce929d0e0e4736", "00f067aa0ba902b7", false)
	require.NoError(t, err)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7", TraceParent(ctx))
	assert.False(t, SpanContextFrom(ctx).IsSampled())
}

func TestWithSpanContextInvalid(t *testing.T) {
	tests := []struct {
		name    string
		traceID string
		spanID  string
	}{
		{"short trace", "abc", "00f067aa0ba902b7"},
		{"zero trace", "00000000000000000000000000000000", "00f067aa0ba902b7"},
		{"bad span", "4bf92f3577b34da6a3ce929d0e0e4736", "xyz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			got, err := WithSpanContext(ctx, tt.traceID, tt.spanID, true)
			assert.Error(t, err)
			assert.Equal(t, ctx, got)
		})
	}
}

func TestContextWithSpanHidesStartedSpan(t *testing.T) {
	tracer, _ := newObservedTracer(t)
	defer tracer.Close()

	_, ctx := tracer.StartSpan(context.Background(), "current")
	captured := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1},
		SpanID:  trace.SpanID{2},
	})

	reentered := ContextWithSpan(ctx, captured)
	assert.Nil(t, SpanFromContext(reentered))
	assert.Equal(t, captured.TraceID(), SpanContextFrom(reentered).TraceID())

	child, _ := tracer.StartSpan(reentered, "child")
	assert.Equal(t, captured.TraceID(), child.TraceID)
	assert.Equal(t, captured.SpanID(), child.ParentID)
}
