package http

import (
	"time"

	"github.com/GriffinCanCode/traceprobe/internal/client"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/cache"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/executor"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/messaging"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/tracing"
)

// StatsAggregator collects statistics from the running components. Any
// component may be nil.
type StatsAggregator struct {
	Metrics  *monitoring.Metrics
	Executor *executor.Executor
	Broker   *messaging.Broker
	Caches   *cache.Manager
	Tracer   *tracing.Tracer
	Clients  []*client.Client
}

// BreakerStats describes one outbound client's circuit breaker
type BreakerStats struct {
	BaseURL  string `json:"base_url"`
	State    string `json:"state"`
	Requests uint32 `json:"requests"`
	Failures uint32 `json:"failures"`
}

// Snapshot is the /health payload
type Snapshot struct {
	Timestamp    time.Time                   `json:"timestamp"`
	HTTP         *monitoring.MetricsSnapshot `json:"http,omitempty"`
	Executor     *executor.Stats             `json:"executor,omitempty"`
	Broker       *messaging.BrokerStats      `json:"broker,omitempty"`
	Caches       map[string]int              `json:"caches,omitempty"`
	SpansDropped uint64                      `json:"spans_dropped"`
	Breakers     map[string]BreakerStats     `json:"breakers,omitempty"`
}

// Collect takes a snapshot
func (a *StatsAggregator) Collect() Snapshot {
	s := Snapshot{Timestamp: time.Now()}
	if a == nil {
		return s
	}

	if a.Metrics != nil {
		m := a.Metrics.Snapshot()
		s.HTTP = &m
	}
	if a.Executor != nil {
		e := a.Executor.Stats()
		s.Executor = &e
	}
	if a.Broker != nil {
		b := a.Broker.Stats()
		s.Broker = &b
	}
	if a.Caches != nil {
		s.Caches = a.Caches.Stats()
	}
	if a.Tracer != nil {
		s.SpansDropped = a.Tracer.Dropped()
	}
	if len(a.Clients) > 0 {
		s.Breakers = make(map[string]BreakerStats, len(a.Clients))
		for _, c := range a.Clients {
			counts := c.BreakerCounts()
			s.Breakers[c.Name()] = BreakerStats{
				BaseURL:  c.BaseURL(),
				State:    c.BreakerState().String(),
				Requests: counts.Requests,
				Failures: counts.TotalFailures,
			}
		}
	}
	return s
}
