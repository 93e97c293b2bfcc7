package probe

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/logging"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/messaging"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/tracing"
	"go.uber.org/zap"
)

const missingPath = "/test/jms-onMessage"

// ListenerFailure is raised by a listener. It holds a child span of the
// consumer span so error handling can continue the trace after the
// delivery context is gone.
type ListenerFailure struct {
	msg  string
	Span *tracing.Span
}

// NewListenerFailure starts the span the failure carries
func NewListenerFailure(ctx context.Context, tracer *tracing.Tracer, msg string) *ListenerFailure {
	span, _ := tracer.StartSpan(ctx, "listener failure")
	span.SetTag("error.message", msg)
	return &ListenerFailure{msg: msg, Span: span}
}

func (e *ListenerFailure) Error() string {
	return e.msg
}

// ListenersConfig names the queues the listeners use
type ListenersConfig struct {
	PrimaryQueue   string
	SecondaryQueue string
	Concurrency    int
}

// Listeners consume the probe queues
type Listeners struct {
	cfg      ListenersConfig
	self     Caller
	template *messaging.Template
	tracer   *tracing.Tracer
	logger   *logging.Logger
}

func NewListeners(cfg ListenersConfig, self Caller, template *messaging.Template, tracer *tracing.Tracer, logger *logging.Logger) *Listeners {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Listeners{cfg: cfg, self: self, template: template, tracer: tracer, logger: logger}
}

// Endpoints returns the container registrations for both queues
func (l *Listeners) Endpoints() []messaging.Endpoint {
	return []messaging.Endpoint{
		{Destination: l.cfg.PrimaryQueue, Concurrency: l.cfg.Concurrency, Handler: l.OnPrimary},
		{Destination: l.cfg.SecondaryQueue, Concurrency: l.cfg.Concurrency, Handler: l.OnSecondary},
	}
}

// OnPrimary forwards to the secondary queue, then calls a path that does
// not exist. The resulting 404 is the listener's error.
func (l *Listeners) OnPrimary(ctx context.Context, msg *messaging.Message) error {
	payload, err := l.template.FromMessage(msg)
	if err != nil {
		return err
	}
	l.logger.For(ctx).Info("JMS message received - queue 1", zap.Any("payload", payload))

	if err := l.template.ConvertAndSend(ctx, l.cfg.SecondaryQueue, SecondaryMessage); err != nil {
		return fmt.Errorf("forward to %s: %w", l.cfg.SecondaryQueue, err)
	}

	_, err = l.self.Get(ctx, missingPath)
	return err
}

// OnSecondary always fails with a ListenerFailure
func (l *Listeners) OnSecondary(ctx context.Context, msg *messaging.Message) error {
	payload, err := l.template.FromMessage(msg)
	if err != nil {
		return err
	}
	l.logger.For(ctx).Info("JMS message received - queue 2", zap.Any("payload", payload))

	if _, err := l.self.Get(ctx, missingPath); err != nil {
		l.logger.For(ctx).Warn("queue 2 call failed", zap.Error(err))
	}

	return NewListenerFailure(ctx, l.tracer, "Some Error")
}
