package tracing

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/traceprobe/internal/shared/id"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const defaultBuffer = 1000

// Span represents a single operation in a trace
type Span struct {
	TraceID    trace.TraceID
	SpanID     trace.SpanID
	ParentID   trace.SpanID
	Flags      trace.TraceFlags
	Name       string
	Service    string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Tags       map[string]string
	Logs       []LogEntry
	Error      error
	StatusCode int
}

// LogEntry represents a log within a span
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Tracer starts spans and logs them once they are submitted
type Tracer struct {
	service string
	logger  *zap.Logger
	metrics *monitoring.Metrics

	spans   chan *Span
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
	once    sync.Once
	dropped atomic.Uint64
}

// Option configures a Tracer
type Option func(*Tracer)

// WithBuffer sets the span buffer size
func WithBuffer(size int) Option {
	return func(t *Tracer) {
		if size > 0 {
			t.spans = make(chan *Span, size)
		}
	}
}

// WithMetrics records dropped spans
func WithMetrics(m *monitoring.Metrics) Option {
	return func(t *Tracer) {
		t.metrics = m
	}
}

// New creates a new tracer instance
func New(service string, logger *zap.Logger, opts ...Option) *Tracer {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracer{
		service: service,
		logger:  logger,
		spans:   make(chan *Span, defaultBuffer),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}

	go t.collectSpans()

	return t
}

// Service returns the service name stamped on every span
func (t *Tracer) Service() string {
	return t.service
}

// Logger returns the logger spans are written to
func (t *Tracer) Logger() *zap.Logger {
	return t.logger
}

// Dropped returns how many spans were discarded
func (t *Tracer) Dropped() uint64 {
	return t.dropped.Load()
}

// StartSpan creates a span. When ctx already carries a span context the new
// span joins that trace as a child; otherwise it starts a new sampled trace.
func (t *Tracer) StartSpan(ctx context.Context, name string) (*Span, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	span := &Span{
		SpanID:    id.NewSpanID(),
		Name:      name,
		Service:   t.service,
		StartTime: time.Now(),
		Tags:      make(map[string]string),
		Logs:      []LogEntry{},
	}

	if parent := trace.SpanContextFromContext(ctx); parent.IsValid() {
		span.TraceID = parent.TraceID()
		span.ParentID = parent.SpanID()
		span.Flags = parent.TraceFlags()
	} else {
		span.TraceID = id.NewTraceID()
		span.Flags = trace.FlagsSampled
	}

	newCtx := context.WithValue(ctx, spanKey{}, span)
	newCtx = trace.ContextWithSpanContext(newCtx, span.Context())

	return span, newCtx
}

// Context returns the span's identifiers as an otel span context
func (s *Span) Context() trace.SpanContext {
	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    s.TraceID,
		SpanID:     s.SpanID,
		TraceFlags: s.Flags,
	})
}

// Finish marks the span as complete
func (s *Span) Finish() {
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
}

// SetTag adds a tag to the span
func (s *Span) SetTag(key, value string) {
	s.Tags[key] = value
}

// SetError records an error in the span
func (s *Span) SetError(err error) {
	s.Error = err
	s.StatusCode = 500
}

// SetStatus sets the HTTP status code
func (s *Span) SetStatus(code int) {
	s.StatusCode = code
}

// Log adds a log entry to the span
func (s *Span) Log(message string, fields map[string]interface{}) {
	s.Logs = append(s.Logs, LogEntry{
		Timestamp: time.Now(),
		Message:   message,
		Fields:    fields,
	})
}

func (t *Tracer) collectSpans() {
	defer close(t.done)
	for span := range t.spans {
		t.processSpan(span)
	}
}

func (t *Tracer) processSpan(span *Span) {
	fields := []zap.Field{
		zap.String("trace_id", span.TraceID.String()),
		zap.String("span_id", span.SpanID.String()),
		zap.String("operation", span.Name),
		zap.Duration("duration", span.Duration),
		zap.String("service", span.Service),
	}

	if span.ParentID.IsValid() {
		fields = append(fields, zap.String("parent_id", span.ParentID.String()))
	}
	if span.StatusCode != 0 {
		fields = append(fields, zap.Int("status", span.StatusCode))
	}
	if len(span.Tags) > 0 {
		fields = append(fields, zap.Any("tags", span.Tags))
	}
	if len(span.Logs) > 0 {
		fields = append(fields, zap.Any("logs", span.Logs))
	}

	if span.Error != nil {
		fields = append(fields, zap.Error(span.Error))
		t.logger.Error("span completed with error", fields...)
	} else {
		t.logger.Info("span completed", fields...)
	}
}

// Submit hands a finished span to the collector without blocking.
// Spans are dropped when the buffer is full or the tracer is closed.
func (t *Tracer) Submit(span *Span) {
	if span == nil {
		return
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		t.drop(span, "tracer closed, dropping span")
		return
	}

	select {
	case t.spans <- span:
	default:
		t.drop(span, "span buffer full, dropping span")
	}
}

func (t *Tracer) drop(span *Span, msg string) {
	t.dropped.Add(1)
	t.metrics.RecordSpanDropped()
	t.logger.Warn(msg,
		zap.String("trace_id", span.TraceID.String()),
		zap.String("span_id", span.SpanID.String()),
	)
}

// Close stops accepting spans and waits until buffered spans are logged
func (t *Tracer) Close() {
	t.once.Do(func() {
		t.mu.Lock()
		t.closed = true
		close(t.spans)
		t.mu.Unlock()
	})
	<-t.done
}
