package http

import (
	"context"
	"net/http"

	"github.com/GriffinCanCode/traceprobe/internal/domain/probe"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/tracing"
	"github.com/gin-gonic/gin"
)

// Probes is the probe behaviour behind the endpoints
type Probes interface {
	Test0(ctx context.Context) error
	Test1(ctx context.Context, from string) error
	Test2(ctx context.Context, from string)
	JMS(ctx context.Context) error
	JMSErrorHandler(ctx context.Context)
	Exception(ctx context.Context) error
	CustomTrace(ctx context.Context, tracer *tracing.Tracer) ([]probe.Step, error)
}

// ValueSource serves the cached value endpoint
type ValueSource interface {
	GetValue(ctx context.Context) (string, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	probes Probes
	values ValueSource
	tracer *tracing.Tracer
	stats  *StatsAggregator
}

// NewHandlers creates a new handler set
func NewHandlers(probes Probes, values ValueSource, tracer *tracing.Tracer, stats *StatsAggregator) *Handlers {
	return &Handlers{
		probes: probes,
		values: values,
		tracer: tracer,
		stats:  stats,
	}
}

// Root handles the liveness check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": h.tracer.Service(),
		"trace":   tracing.TraceParent(c.Request.Context()),
	})
}

// Health reports component statistics
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"components": h.stats.Collect(),
	})
}

// Test0 handles GET /test0
func (h *Handlers) Test0(c *gin.Context) {
	respond(c, h.probes.Test0(c.Request.Context()))
}

// Test1 handles GET /test1/:from
func (h *Handlers) Test1(c *gin.Context) {
	respond(c, h.probes.Test1(c.Request.Context(), c.Param("from")))
}

// Test2 handles GET /test2/:from
func (h *Handlers) Test2(c *gin.Context) {
	h.probes.Test2(c.Request.Context(), c.Param("from"))
	c.Status(http.StatusOK)
}

// JMS handles GET /jms
func (h *Handlers) JMS(c *gin.Context) {
	respond(c, h.probes.JMS(c.Request.Context()))
}

// JMSErrorHandler handles GET /jms-error-handler
func (h *Handlers) JMSErrorHandler(c *gin.Context) {
	h.probes.JMSErrorHandler(c.Request.Context())
	c.Status(http.StatusOK)
}

// Exception handles GET /exception
func (h *Handlers) Exception(c *gin.Context) {
	respond(c, h.probes.Exception(c.Request.Context()))
}

// Cache handles GET /cache
func (h *Handlers) Cache(c *gin.Context) {
	value, err := h.values.GetValue(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.String(http.StatusOK, value)
}

// CustomTrace handles GET /custom-trace
func (h *Handlers) CustomTrace(c *gin.Context) {
	steps, err := h.probes.CustomTrace(c.Request.Context(), h.tracer)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"steps": steps})
}

// respond replies 200 with an empty body, or hands err to the problem middleware
func respond(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusOK)
}
