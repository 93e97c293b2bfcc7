package messaging

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/logging"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/traceprobe/internal/shared/id"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	ErrContainerStarted = errors.New("listener container already started")
	ErrContainerStopped = errors.New("listener container stopped")
)

// Handler processes one delivered message
type Handler func(ctx context.Context, msg *Message) error

// Endpoint binds a handler to a destination
type Endpoint struct {
	Destination string
	Concurrency int
	Handler     Handler
}

// ErrorHandler receives listener failures. Like a JMS container's error
// handler it gets only the error, not the delivery context.
type ErrorHandler interface {
	HandleError(err error)
}

// ErrorHandlerFunc adapts a function to ErrorHandler
type ErrorHandlerFunc func(err error)

// HandleError calls f(err)
func (f ErrorHandlerFunc) HandleError(err error) { f(err) }

// ListenerExecutionError wraps a handler failure with the delivery details
type ListenerExecutionError struct {
	Destination string
	MessageID   id.MessageID
	Cause       error
	// SpanContext is the consumer span the handler ran in
	SpanContext trace.SpanContext
}

func (e *ListenerExecutionError) Error() string {
	return fmt.Sprintf("listener on %s failed for message %s: %v", e.Destination, e.MessageID, e.Cause)
}

func (e *ListenerExecutionError) Unwrap() error {
	return e.Cause
}

// Container runs consumer goroutines for registered endpoints
type Container struct {
	broker       *Broker
	tracer       *tracing.Tracer
	logger       *logging.Logger
	metrics      *monitoring.Metrics
	errorHandler ErrorHandler

	mu        sync.Mutex
	endpoints []Endpoint
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	started   bool
}

// ContainerOption configures a Container
type ContainerOption func(*Container)

// WithErrorHandler routes listener failures to h
func WithErrorHandler(h ErrorHandler) ContainerOption {
	return func(c *Container) {
		c.errorHandler = h
	}
}

// WithContainerMetrics records received and failed messages
func WithContainerMetrics(m *monitoring.Metrics) ContainerOption {
	return func(c *Container) {
		c.metrics = m
	}
}

// NewContainer creates a listener container over broker
func NewContainer(broker *Broker, tracer *tracing.Tracer, logger *logging.Logger, opts ...ContainerOption) *Container {
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &Container{
		broker: broker,
		tracer: tracer,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register adds an endpoint; it starts consuming on the next Start
func (c *Container) Register(ep Endpoint) error {
	if ep.Destination == "" {
		return errors.New("listener destination is required")
	}
	if ep.Handler == nil {
		return fmt.Errorf("listener for %s has no handler", ep.Destination)
	}
	if ep.Concurrency <= 0 {
		ep.Concurrency = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.endpoints = append(c.endpoints, ep)
	return nil
}

// Start launches Concurrency consumers per endpoint, named <destination>-<n>
func (c *Container) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return ErrContainerStarted
	}
	c.started = true

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	for _, ep := range c.endpoints {
		for i := 1; i <= ep.Concurrency; i++ {
			c.wg.Add(1)
			go c.consume(ctx, ep, ep.Destination+"-"+strconv.Itoa(i))
		}
		c.logger.Info("listener started",
			zap.String("destination", ep.Destination),
			zap.Int("concurrency", ep.Concurrency),
		)
	}
	return nil
}

// Stop stops consuming and waits for in-flight deliveries until ctx ends.
// Handlers blocked sending to a full queue fail with ErrContainerStopped.
func (c *Container) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = false
	cancel := c.cancel
	c.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("listener container did not stop: %w", ctx.Err())
	}
}

func (c *Container) consume(ctx context.Context, ep Endpoint, worker string) {
	defer c.wg.Done()

	// Deliveries outlive Stop's cancellation so in-flight handlers finish;
	// only their blocked sends see it.
	deliveryCtx := withStopSignal(context.WithoutCancel(ctx), ctx.Done())
	deliveryCtx = logging.WithWorker(deliveryCtx, worker)

	for {
		msg, err := c.broker.Receive(ctx, ep.Destination)
		if err != nil {
			return
		}
		c.deliver(deliveryCtx, ep, msg)
	}
}

func (c *Container) deliver(base context.Context, ep Endpoint, msg *Message) {
	ctx := tracing.Extract(base, msg.Carrier())
	span, ctx := c.tracer.StartSpan(ctx, "receive "+ep.Destination)
	span.SetTag("span.kind", "consumer")
	span.SetTag("messaging.destination", ep.Destination)
	span.SetTag("messaging.message_id", msg.ID.String())
	defer func() {
		span.Finish()
		c.tracer.Submit(span)
	}()

	c.metrics.RecordMessage(ep.Destination, monitoring.MessageReceived)

	err := invoke(ctx, ep.Handler, msg)
	if err == nil {
		return
	}

	span.SetError(err)
	c.metrics.RecordMessage(ep.Destination, monitoring.MessageFailed)

	failure := &ListenerExecutionError{
		Destination: ep.Destination,
		MessageID:   msg.ID,
		Cause:       err,
		SpanContext: span.Context(),
	}
	if c.errorHandler != nil {
		span.Log("passed to error handler", map[string]interface{}{"message_id": msg.ID.String()})
		c.handleError(ctx, failure)
		return
	}
	c.logger.For(ctx).Error("listener failed",
		zap.String("destination", ep.Destination),
		zap.String("message_id", msg.ID.String()),
		zap.Error(err),
	)
}

func (c *Container) handleError(ctx context.Context, failure *ListenerExecutionError) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.For(ctx).Error("error handler panicked",
				zap.String("destination", failure.Destination),
				zap.Any("panic", r),
			)
		}
	}()
	c.errorHandler.HandleError(failure)
}

func invoke(ctx context.Context, h Handler, msg *Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	return h(ctx, msg)
}
