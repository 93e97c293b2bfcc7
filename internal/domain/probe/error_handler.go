package probe

import (
	"context"
	"errors"

	"github.com/GriffinCanCode/traceprobe/internal/client"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/logging"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/messaging"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/tracing"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrorHandlerWorker names the goroutine context error handling runs under
const ErrorHandlerWorker = "jms-error-handler"

var _ messaging.ErrorHandler = (*ErrorHandler)(nil)

// ErrorHandler receives listener failures and reports them by calling
// another endpoint inside the span captured when the failure happened.
type ErrorHandler struct {
	self   Caller
	tracer *tracing.Tracer
	logger *logging.Logger
}

func NewErrorHandler(self Caller, tracer *tracing.Tracer, logger *logging.Logger) *ErrorHandler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ErrorHandler{self: self, tracer: tracer, logger: logger}
}

// HandleError implements messaging.ErrorHandler
func (h *ErrorHandler) HandleError(err error) {
	base := logging.WithWorker(context.Background(), ErrorHandlerWorker)

	sc, finish := captured(err)
	if finish != nil {
		defer finish(h.tracer)
	}

	var failure *messaging.ListenerExecutionError
	if errors.As(err, &failure) {
		// Log inside the consumer span; the delivery context itself is gone.
		h.logger.For(tracing.ContextWithSpan(base, failure.SpanContext)).Error("Got some error", zap.Error(err))
	} else {
		h.logger.For(base).Error("Got some error", zap.Error(err))
	}

	if !sc.IsValid() {
		return
	}

	ctx := tracing.ContextWithSpan(base, sc)
	log := h.logger.For(ctx)
	log.Info("handling error by calling another endpoint")

	if _, err := h.self.Get(ctx, "/test1/jms-handle-error"); err != nil {
		log.Error("error report failed", zap.Error(err))
		return
	}
	log.Info("Finished handling error")
}

// captured returns the span context recorded by a recognised cause and, for
// a ListenerFailure, a func that completes its span.
func captured(err error) (trace.SpanContext, func(*tracing.Tracer)) {
	var lf *ListenerFailure
	if errors.As(err, &lf) && lf.Span != nil {
		return lf.Span.Context(), func(t *tracing.Tracer) {
			lf.Span.Finish()
			t.Submit(lf.Span)
		}
	}

	var se *client.StatusError
	if errors.As(err, &se) && se.ClientError() {
		return se.SpanContext, nil
	}
	return trace.SpanContext{}, nil
}
