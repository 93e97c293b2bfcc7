package client

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/logging"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/tracing"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTracer(t *testing.T) *tracing.Tracer {
	t.Helper()
	tracer := tracing.New("test", zap.NewNop())
	t.Cleanup(tracer.Close)
	return tracer
}

func TestGetPropagatesTrace(t *testing.T) {
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		assert.Equal(t, "/test2/test1", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tracer := newTracer(t)
	metrics := monitoring.NewMetrics()
	c := New(Config{Name: "self", BaseURL: srv.URL + "/"}, tracer, nil, WithMetrics(metrics))

	_, ctx := tracer.StartSpan(context.Background(), "caller")
	resp, err := c.Get(ctx, "/test2/test1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())

	// The server sees the client span: same trace, new span.
	assert.Equal(t, tracing.GetTraceID(ctx), headers.Get(tracing.TraceIDHeader))
	assert.NotEqual(t, tracing.GetSpanID(ctx), headers.Get(tracing.SpanIDHeader))
	assert.Contains(t, headers.Get("traceparent"), tracing.GetTraceID(ctx))
	assert.Equal(t, userAgent, headers.Get("User-Agent"))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ClientCalls.WithLabelValues("self", "GET", "200")))
}

func TestGetStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	tracer := newTracer(t)
	c := New(Config{Name: "self", BaseURL: srv.URL}, tracer, nil)

	_, ctx := tracer.StartSpan(context.Background(), "caller")
	resp, err := c.Get(ctx, "/test/jms-onMessage")
	require.Error(t, err)
	require.NotNil(t, resp)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.True(t, se.ClientError())
	assert.Contains(t, se.Body, "nope")
	assert.Contains(t, se.Error(), "404")
	assert.Equal(t, tracing.GetTraceID(ctx), se.SpanContext.TraceID().String())
	assert.NotEqual(t, tracing.GetSpanID(ctx), se.SpanContext.SpanID().String())

	// 4xx does not count against the breaker
	assert.Equal(t, uint32(0), c.BreakerCounts().TotalFailures)
}

func TestServerErrorsTripBreaker(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	breaker := resilience.New("self", resilience.Settings{
		ReadyToTrip:  func(c resilience.Counts) bool { return c.ConsecutiveFailures >= 2 },
		IsSuccessful: countsAsSuccess,
		Clock:        clockz.NewFakeClock(),
	})
	c := New(Config{Name: "self", BaseURL: srv.URL}, newTracer(t), nil, WithBreaker(breaker))

	for i := 0; i < 2; i++ {
		_, err := c.Get(context.Background(), "/fail")
		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.False(t, se.ClientError())
	}
	assert.Equal(t, resilience.StateOpen, c.BreakerState())

	_, err := c.Get(context.Background(), "/fail")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.EqualValues(t, 2, hits.Load())
}

func TestRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, RetryCount: 2}, newTracer(t), nil)

	resp, err := c.Get(context.Background(), "/flaky")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.EqualValues(t, 3, hits.Load())
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Config{BaseURL: url, Timeout: time.Second}, newTracer(t), nil)

	resp, err := c.Get(context.Background(), "/gone")
	assert.Error(t, err)
	var se *StatusError
	assert.False(t, errors.As(err, &se))
	if resp != nil {
		assert.Zero(t, resp.StatusCode())
	}
	assert.Equal(t, uint32(1), c.BreakerCounts().TotalFailures)
}

func TestRateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, RateLimit: 0.5}, newTracer(t), nil)

	_, err := c.Get(context.Background(), "/a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = c.Get(ctx, "/b")
	assert.ErrorContains(t, err, "rate limit")
}

func TestLogFull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	c := New(Config{BaseURL: srv.URL, LogFull: true}, newTracer(t), logging.Wrap(zap.New(core)))

	_, err := c.Get(context.Background(), "/debug")
	require.NoError(t, err)
	assert.Greater(t, logs.Len(), 1, "resty debug output should reach the logger")
	assert.Equal(t, 1, logs.FilterMessage("outbound call").Len())
}

func TestTestServiceClient(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if path == "/test1/test 0 using feign client" {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	ts := NewTestServiceClient(New(Config{Name: "test-service", BaseURL: srv.URL}, newTracer(t), nil))

	require.NoError(t, ts.Test1(context.Background(), "plain"))
	assert.Equal(t, "/test1/plain", path)

	err := ts.Test1(context.Background(), "test 0 using feign client")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
}

func TestCloseIdleConnections(t *testing.T) {
	var closed atomic.Int32
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	srv.Config.ConnState = func(_ net.Conn, state http.ConnState) {
		if state == http.StateClosed {
			closed.Add(1)
		}
	}
	srv.Start()
	defer srv.Close()

	c := New(Config{Name: "self", BaseURL: srv.URL}, newTracer(t), nil)
	_, err := c.Get(context.Background(), "/test2/x")
	require.NoError(t, err)
	assert.Zero(t, closed.Load(), "connection is kept alive after the call")

	c.CloseIdleConnections()
	require.Eventually(t, func() bool { return closed.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}
