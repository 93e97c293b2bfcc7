package tracing

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
)

func TestInjectExtractRoundTrip(t *testing.T) {
	tracer, _ := newObservedTracer(t)
	defer tracer.Close()

	span, ctx := tracer.StartSpan(context.Background(), "producer")

	headers := map[string]string{}
	InjectTraceContext(ctx, headers)

	assert.Equal(t, span.TraceID.String(), headers[TraceIDHeader])
	assert.Equal(t, span.SpanID.String(), headers[SpanIDHeader])
	assert.Equal(t, "00-"+span.TraceID.String()+"-"+span.SpanID.String()+"-01", headers["traceparent"])

	extracted := ExtractTraceContext(context.Background(), headers)
	sc := SpanContextFrom(extracted)
	assert.True(t, sc.IsRemote())
	assert.Equal(t, span.TraceID, sc.TraceID())
	assert.Equal(t, span.SpanID, sc.SpanID())
}

func TestInjectWithoutSpan(t *testing.T) {
	headers := map[string]string{}
	InjectTraceContext(context.Background(), headers)
	assert.Empty(t, headers)
}

func TestExtract(t *testing.T) {
	const (
		w3cTrace    = "4bf92f3577b34da6a3ce929d0e0e4736"
		w3cSpan     = "00f067aa0ba902b7"
		legacyTrace = "0af7651916cd43dd8448eb211c80319c"
		legacySpan  = "b7ad6b7169203331"
	)

	tests := []struct {
		name      string
		headers   map[string]string
		wantTrace string
		wantSpan  string
	}{
		{
			name:      "traceparent only",
			headers:   map[string]string{"traceparent": "00-" + w3cTrace + "-" + w3cSpan + "-01"},
			wantTrace: w3cTrace,
			wantSpan:  w3cSpan,
		},
		{
			name:      "legacy only",
			headers:   map[string]string{TraceIDHeader: legacyTrace, SpanIDHeader: legacySpan},
			wantTrace: legacyTrace,
			wantSpan:  legacySpan,
		},
		{
			name: "traceparent wins",
			headers: map[string]string{
				"traceparent": "00-" + w3cTrace + "-" + w3cSpan + "-01",
				TraceIDHeader: legacyTrace,
				SpanIDHeader:  legacySpan,
			},
			wantTrace: w3cTrace,
			wantSpan:  w3cSpan,
		},
		{
			name:    "legacy without span id",
			headers: map[string]string{TraceIDHeader: legacyTrace},
		},
		{
			name:    "malformed traceparent",
			headers: map[string]string{"traceparent": "garbage"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ExtractTraceContext(context.Background(), tt.headers)
			assert.Equal(t, tt.wantTrace, GetTraceID(ctx))
			assert.Equal(t, tt.wantSpan, GetSpanID(ctx))
		})
	}
}

func TestHeaderCarrier(t *testing.T) {
	tracer, _ := newObservedTracer(t)
	defer tracer.Close()

	span, ctx := tracer.StartSpan(context.Background(), "client")

	header := http.Header{}
	Inject(ctx, propagation.HeaderCarrier(header))
	require.NotEmpty(t, header.Get("Traceparent"))
	assert.Equal(t, span.TraceID.String(), header.Get("x-trace-id"))

	got := Extract(context.Background(), propagation.HeaderCarrier(header))
	assert.Equal(t, span.SpanID.String(), GetSpanID(got))
	assert.ElementsMatch(t, []string{TraceIDHeader, SpanIDHeader, "traceparent", "tracestate"}, Propagator().Fields())
}
