package messaging

import (
	"time"

	"github.com/GriffinCanCode/traceprobe/internal/shared/id"
	"go.opentelemetry.io/otel/propagation"
)

// Message is one queued payload plus its headers
type Message struct {
	ID          id.MessageID
	Destination string
	Body        []byte
	ContentType string
	Headers     map[string]string
	Timestamp   time.Time
}

// Carrier exposes message headers to trace propagators
type Carrier struct {
	msg *Message
}

var _ propagation.TextMapCarrier = Carrier{}

// Carrier returns a propagation carrier over the message headers
func (m *Message) Carrier() Carrier {
	return Carrier{msg: m}
}

// Get returns the header value for key
func (c Carrier) Get(key string) string {
	return c.msg.Headers[key]
}

// Set stores a header, allocating the map on first use
func (c Carrier) Set(key, value string) {
	if c.msg.Headers == nil {
		c.msg.Headers = make(map[string]string)
	}
	c.msg.Headers[key] = value
}

// Keys lists header names
func (c Carrier) Keys() []string {
	keys := make([]string, 0, len(c.msg.Headers))
	for k := range c.msg.Headers {
		keys = append(keys, k)
	}
	return keys
}
