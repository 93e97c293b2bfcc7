package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Field keys attached by For.
const (
	TraceIDKey = "trace_id"
	SpanIDKey  = "span_id"
	WorkerKey  = "worker"
)

type workerKey struct{}

// WithWorker records the name of the goroutine pool member running the work.
func WithWorker(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, workerKey{}, name)
}

// WorkerFrom returns the worker name stored in ctx, or "".
func WorkerFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	name, _ := ctx.Value(workerKey{}).(string)
	return name
}

// Fields returns the trace and worker fields for ctx.
func Fields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	fields := make([]zap.Field, 0, 3)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String(TraceIDKey, sc.TraceID().String()),
			zap.String(SpanIDKey, sc.SpanID().String()),
		)
	}
	if w := WorkerFrom(ctx); w != "" {
		fields = append(fields, zap.String(WorkerKey, w))
	}
	return fields
}

// For returns a logger carrying the trace id, span id and worker found in ctx.
func (l *Logger) For(ctx context.Context) *zap.Logger {
	fields := Fields(ctx)
	if len(fields) == 0 {
		return l.Logger
	}
	return l.Logger.With(fields...)
}
