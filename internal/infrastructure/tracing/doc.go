/*
Package tracing provides the span machinery the probe uses to follow one trace
id across HTTP calls, executor tasks, scheduled runs and queue listeners.

# Overview

Span identifiers use the W3C layout from go.opentelemetry.io/otel/trace:
16-byte trace ids and 8-byte span ids. Spans are stored in a context.Context
through trace.ContextWithSpanContext, so any code that only knows otel types
(including the logging package) can read them.

# Propagation

Outbound carriers receive both the W3C traceparent header and the legacy
X-Trace-ID / X-Span-ID pair. On extraction traceparent wins when both are
present.

# Usage

	tracer := tracing.New("sleuth", logger)
	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "operation")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

# Collection

Finished spans go through a buffered channel to a single collector goroutine
that logs them. Submit never blocks; spans are dropped and counted when the
buffer is full.
*/
package tracing
