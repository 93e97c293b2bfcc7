package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by the Record* methods.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusPanic   = "panic"

	TaskSubmitted = "submitted"
	TaskCompleted = "completed"
	TaskRejected  = "rejected"
	TaskPanicked  = "panicked"

	MessageSent     = "sent"
	MessageReceived = "received"
	MessageFailed   = "failed"
)

// Metrics holds all Prometheus metrics. Each instance owns its registry, so
// several servers can coexist in one process. A nil *Metrics ignores every
// Record call.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Outbound client metrics
	ClientCalls    *prometheus.CounterVec
	ClientDuration *prometheus.HistogramVec

	// Async hop metrics
	ExecutorTasks *prometheus.CounterVec
	ScheduledRuns *prometheus.CounterVec
	Messages      *prometheus.CounterVec

	CacheLookups *prometheus.CounterVec
	SpansDropped prometheus.Counter

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot
	mu       sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests  int64   `json:"total_requests"`
	TotalErrors    int64   `json:"total_errors"`
	TotalDuration  float64 `json:"total_duration_seconds"`
	TasksCompleted int64   `json:"tasks_completed"`
	MessagesSent   int64   `json:"messages_sent"`
	MessagesFailed int64   `json:"messages_failed"`
	SpansDropped   int64   `json:"spans_dropped"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
}

// NewMetrics creates a metrics collector with its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "probe_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "probe_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "probe_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "probe_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		ClientCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "probe_client_calls_total",
				Help: "Total number of outbound HTTP calls",
			},
			[]string{"client", "method", "status"},
		),
		ClientDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "probe_client_duration_seconds",
				Help:    "Outbound HTTP call duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"client", "method"},
		),

		ExecutorTasks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "probe_executor_tasks_total",
				Help: "Executor task lifecycle events",
			},
			[]string{"executor", "event"},
		),
		ScheduledRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "probe_scheduled_runs_total",
				Help: "Scheduled job runs by outcome",
			},
			[]string{"job", "status"},
		),
		Messages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "probe_messages_total",
				Help: "Queue messages by destination and event",
			},
			[]string{"destination", "event"},
		),

		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "probe_cache_lookups_total",
				Help: "Cache lookups by cache name and result",
			},
			[]string{"cache", "result"},
		),
		SpansDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "probe_spans_dropped_total",
				Help: "Spans dropped because the collector buffer was full or closed",
			},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "probe_uptime_seconds",
			Help: "Service uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordClientCall records an outbound HTTP call
func (m *Metrics) RecordClientCall(client, method, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ClientCalls.WithLabelValues(client, method, status).Inc()
	m.ClientDuration.WithLabelValues(client, method).Observe(duration.Seconds())
}

// RecordTask records an executor task event
func (m *Metrics) RecordTask(executor, event string) {
	if m == nil {
		return
	}
	m.ExecutorTasks.WithLabelValues(executor, event).Inc()
	if event == TaskCompleted {
		m.mu.Lock()
		m.snapshot.TasksCompleted++
		m.mu.Unlock()
	}
}

// RecordScheduledRun records one run of a scheduled job
func (m *Metrics) RecordScheduledRun(job, status string) {
	if m == nil {
		return
	}
	m.ScheduledRuns.WithLabelValues(job, status).Inc()
}

// RecordMessage records a queue message event
func (m *Metrics) RecordMessage(destination, event string) {
	if m == nil {
		return
	}
	m.Messages.WithLabelValues(destination, event).Inc()

	m.mu.Lock()
	switch event {
	case MessageSent:
		m.snapshot.MessagesSent++
	case MessageFailed:
		m.snapshot.MessagesFailed++
	}
	m.mu.Unlock()
}

// RecordCacheLookup records a cache hit or miss
func (m *Metrics) RecordCacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordSpanDropped counts a span the tracer discarded
func (m *Metrics) RecordSpanDropped() {
	if m == nil {
		return
	}
	m.SpansDropped.Inc()

	m.mu.Lock()
	m.snapshot.SpansDropped++
	m.mu.Unlock()
}

// Snapshot returns a copy of the JSON-friendly counters
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.RLock()
	snap := m.snapshot
	m.mu.RUnlock()

	snap.UptimeSeconds = time.Since(m.startTime).Seconds()
	return snap
}
