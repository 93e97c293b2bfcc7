package probe

import (
	"testing"

	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomTrace(t *testing.T) {
	f := newFixture(t)
	ctx := f.request("GET /custom-trace")
	orgTrace, orgSpan := tracing.GetTraceID(ctx), tracing.GetSpanID(ctx)

	steps, err := f.flows(FlowsConfig{}, nil).CustomTrace(ctx, f.tracer)
	require.NoError(t, err)
	require.Len(t, steps, 7)

	assert.Equal(t, Step{stepOriginal, orgTrace, orgSpan}, steps[0])

	scoped := steps[1]
	assert.Equal(t, orgTrace, scoped.TraceID)
	assert.NotEqual(t, orgSpan, scoped.SpanID)

	assert.Equal(t, Step{stepCustom, CustomTraceID, CustomSpanID}, steps[2])
	assert.Equal(t, Step{stepRestored, orgTrace, scoped.SpanID}, steps[3])
	assert.Equal(t, Step{stepNested, NestedTraceID, NestedSpanID}, steps[4])
	assert.Equal(t, Step{stepNestedOriginal, orgTrace, orgSpan}, steps[5])
	assert.Equal(t, Step{stepRestored, orgTrace, scoped.SpanID}, steps[6])

	entries := f.logs.AllUntimed()
	require.Len(t, entries, len(steps))
	for i, e := range entries {
		assert.Equal(t, steps[i].TraceID, traceOf(e), "step %d", i)
	}
}

func TestCustomTraceWithoutSpan(t *testing.T) {
	f := newFixture(t)

	steps, err := f.flows(FlowsConfig{}, nil).CustomTrace(t.Context(), f.tracer)
	require.NoError(t, err)

	// The scoped span starts a new trace; there is no original to restore.
	require.Len(t, steps, 6)
	assert.Empty(t, steps[0].TraceID)
	assert.NotEmpty(t, steps[1].TraceID)
	assert.Equal(t, steps[1].TraceID, steps[5].TraceID)
}
