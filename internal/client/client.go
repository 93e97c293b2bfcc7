package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/logging"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/tracing"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const userAgent = "traceprobe/1.0"

// Config configures an outbound client
type Config struct {
	Name       string
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
	RateLimit  float64 // requests per second, 0 = unlimited
	LogFull    bool
}

// StatusError is returned for responses with status >= 400
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	// SpanContext is the client span the call ran in
	SpanContext trace.SpanContext
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// ClientError reports whether the server rejected the request (4xx)
func (e *StatusError) ClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// Client is a traced HTTP client with rate limiting and a circuit breaker
type Client struct {
	name    string
	baseURL string
	resty   *resty.Client
	retry   *retryablehttp.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	tracer  *tracing.Tracer
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// Option configures a Client
type Option func(*Client)

// WithMetrics records call counts and latency
func WithMetrics(m *monitoring.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithBreaker replaces the default circuit breaker
func WithBreaker(b *resilience.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

// New creates a client whose transport retries through go-retryablehttp
func New(cfg Config, tracer *tracing.Tracer, logger *logging.Logger, opts ...Option) *Client {
	if cfg.Name == "" {
		cfg.Name = "http"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryCount
	retryClient.RetryWaitMin = 50 * time.Millisecond
	retryClient.RetryWaitMax = time.Second
	retryClient.Logger = nil
	// Hand the last response back instead of turning a 5xx into a transport error.
	retryClient.ErrorHandler = func(resp *http.Response, err error, _ int) (*http.Response, error) {
		if resp != nil {
			return resp, nil
		}
		return nil, err
	}

	restyClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", userAgent).
		SetTransport(&retryablehttp.RoundTripper{Client: retryClient})

	if cfg.LogFull {
		restyClient.SetLogger(logger.Sugared()).SetDebug(true)
	}

	restyClient.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		tracing.Inject(r.Context(), propagation.HeaderCarrier(r.Header))
		return nil
	})

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	c := &Client{
		name:    cfg.Name,
		baseURL: cfg.BaseURL,
		resty:   restyClient,
		retry:   retryClient,
		limiter: limiter,
		tracer:  tracer,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.breaker == nil {
		c.breaker = resilience.New(cfg.Name, resilience.Settings{
			MaxRequests: 5,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts resilience.Counts) bool {
				return counts.ConsecutiveFailures >= 10 ||
					(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.7)
			},
			IsSuccessful: countsAsSuccess,
			OnStateChange: func(name string, from, to resilience.State) {
				logger.Warn("circuit breaker state changed",
					zap.String("client", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		})
	}

	return c
}

// countsAsSuccess keeps 4xx answers from tripping the breaker: the remote
// side is healthy, it just rejected the request.
func countsAsSuccess(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode < 500
	}
	return err == nil
}

// Name returns the client name used in metrics and breaker logs
func (c *Client) Name() string {
	return c.name
}

// BaseURL returns the configured base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CloseIdleConnections drops pooled connections that carry no request.
// Connections dialed but never used would otherwise hold up a graceful
// shutdown of the server they point at.
func (c *Client) CloseIdleConnections() {
	c.retry.HTTPClient.CloseIdleConnections()
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// BreakerCounts returns circuit breaker statistics
func (c *Client) BreakerCounts() resilience.Counts {
	return c.breaker.Counts()
}

// Get calls path relative to the base URL inside a client span. Responses
// with status >= 400 come back as *StatusError.
func (c *Client) Get(ctx context.Context, path string) (*resty.Response, error) {
	span, ctx := c.tracer.StartSpan(ctx, http.MethodGet+" "+path)
	span.SetTag("span.kind", "client")
	span.SetTag("http.method", http.MethodGet)
	span.SetTag("http.url", c.baseURL+path)
	timer := monitoring.NewTimer(c.metrics, c.name, http.MethodGet)

	resp, err := c.get(ctx, span, path)

	status := "error"
	if err != nil {
		span.SetError(err)
	}
	if resp != nil && resp.RawResponse != nil {
		status = strconv.Itoa(resp.StatusCode())
		span.SetStatus(resp.StatusCode())
	}
	timer.Stop(status)
	span.Finish()
	c.tracer.Submit(span)

	c.logger.For(ctx).Debug("outbound call",
		zap.String("client", c.name),
		zap.String("path", path),
		zap.String("status", status),
		zap.Duration("duration", span.Duration),
	)
	return resp, err
}

func (c *Client) get(ctx context.Context, span *tracing.Span, path string) (*resty.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	resp, err := resilience.Do(c.breaker, func() (*resty.Response, error) {
		resp, err := c.resty.R().SetContext(ctx).Get(path)
		if err != nil {
			return resp, err
		}
		if resp.IsError() {
			return resp, &StatusError{
				Method:      http.MethodGet,
				URL:         resp.Request.URL,
				StatusCode:  resp.StatusCode(),
				Body:        resp.String(),
				SpanContext: span.Context(),
			}
		}
		return resp, nil
	})
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s unavailable: %w", c.name, err)
	}
	return resp, err
}
