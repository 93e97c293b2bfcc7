package messaging

import (
	"context"
	"errors"
	"sync"

	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/monitoring"
)

var ErrBrokerClosed = errors.New("message broker is closed")

const defaultBuffer = 100

// BrokerStats reports queue depth per destination
type BrokerStats struct {
	Queues map[string]int `json:"queues"`
	Closed bool           `json:"closed"`
}

// Broker holds named in-process queues. Queues are created on first use and
// never closed, so a late Send can only fail with ErrBrokerClosed.
type Broker struct {
	buffer  int
	metrics *monitoring.Metrics

	mu     sync.RWMutex
	queues map[string]chan *Message
	done   chan struct{}
	once   sync.Once
}

// BrokerOption configures a Broker
type BrokerOption func(*Broker)

// WithBrokerMetrics records sent messages
func WithBrokerMetrics(m *monitoring.Metrics) BrokerOption {
	return func(b *Broker) {
		b.metrics = m
	}
}

// NewBroker creates a broker whose queues buffer up to buffer messages
func NewBroker(buffer int, opts ...BrokerOption) *Broker {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	b := &Broker{
		buffer: buffer,
		queues: make(map[string]chan *Message),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Broker) queue(destination string) chan *Message {
	b.mu.RLock()
	q, ok := b.queues[destination]
	b.mu.RUnlock()
	if ok {
		return q
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if q, ok = b.queues[destination]; !ok {
		q = make(chan *Message, b.buffer)
		b.queues[destination] = q
	}
	return q
}

type stopSignalKey struct{}

func withStopSignal(ctx context.Context, stop <-chan struct{}) context.Context {
	return context.WithValue(ctx, stopSignalKey{}, stop)
}

// stopSignal is nil outside a listener delivery, and a nil channel never fires.
func stopSignal(ctx context.Context) <-chan struct{} {
	stop, _ := ctx.Value(stopSignalKey{}).(<-chan struct{})
	return stop
}

// Send blocks until msg is queued, ctx ends or the broker closes. Inside a
// listener delivery it also gives up once the container stops.
func (b *Broker) Send(ctx context.Context, msg *Message) error {
	if msg == nil || msg.Destination == "" {
		return errors.New("message destination is required")
	}

	select {
	case <-b.done:
		return ErrBrokerClosed
	default:
	}

	q := b.queue(msg.Destination)
	select {
	case q <- msg:
		b.metrics.RecordMessage(msg.Destination, monitoring.MessageSent)
		return nil
	default:
	}

	select {
	case q <- msg:
		b.metrics.RecordMessage(msg.Destination, monitoring.MessageSent)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-stopSignal(ctx):
		return ErrContainerStopped
	case <-b.done:
		return ErrBrokerClosed
	}
}

// Receive blocks until a message arrives on destination
func (b *Broker) Receive(ctx context.Context, destination string) (*Message, error) {
	select {
	case msg := <-b.queue(destination):
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.done:
		return nil, ErrBrokerClosed
	}
}

// Close wakes every blocked sender and receiver. Queued messages are dropped.
func (b *Broker) Close() {
	b.once.Do(func() {
		close(b.done)
	})
}

// Stats returns queue depths
func (b *Broker) Stats() BrokerStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stats := BrokerStats{Queues: make(map[string]int, len(b.queues))}
	for name, q := range b.queues {
		stats.Queues[name] = len(q)
	}
	select {
	case <-b.done:
		stats.Closed = true
	default:
	}
	return stats
}
