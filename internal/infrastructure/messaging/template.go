package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/logging"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/traceprobe/internal/shared/id"
	"go.uber.org/zap"
)

// Template sends payloads with the caller's trace context in the headers
type Template struct {
	broker    *Broker
	tracer    *tracing.Tracer
	logger    *logging.Logger
	converter Converter
}

// NewTemplate creates a template using SimpleConverter
func NewTemplate(broker *Broker, tracer *tracing.Tracer, logger *logging.Logger) *Template {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Template{
		broker:    broker,
		tracer:    tracer,
		logger:    logger,
		converter: SimpleConverter{},
	}
}

// WithConverter returns a copy of the template using c
func (t *Template) WithConverter(c Converter) *Template {
	cp := *t
	cp.converter = c
	return &cp
}

// FromMessage decodes a received message with the template's converter
func (t *Template) FromMessage(msg *Message) (any, error) {
	return t.converter.FromMessage(msg)
}

// ConvertAndSend encodes payload and queues it on destination inside a
// producer span.
func (t *Template) ConvertAndSend(ctx context.Context, destination string, payload any) error {
	span, ctx := t.tracer.StartSpan(ctx, "send "+destination)
	span.SetTag("span.kind", "producer")
	span.SetTag("messaging.destination", destination)
	defer func() {
		span.Finish()
		t.tracer.Submit(span)
	}()

	body, contentType, err := t.converter.ToMessage(payload)
	if err != nil {
		span.SetError(err)
		return err
	}

	msg := &Message{
		ID:          id.NewMessageID(),
		Destination: destination,
		Body:        body,
		ContentType: contentType,
		Headers:     make(map[string]string),
		Timestamp:   time.Now(),
	}
	tracing.Inject(ctx, msg.Carrier())
	span.SetTag("messaging.message_id", msg.ID.String())

	if err := t.broker.Send(ctx, msg); err != nil {
		span.SetError(err)
		return fmt.Errorf("failed to send to %s: %w", destination, err)
	}

	t.logger.For(ctx).Debug("message sent",
		zap.String("destination", destination),
		zap.String("message_id", msg.ID.String()),
	)
	return nil
}
