package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/traceprobe/internal/api/http"
	"github.com/GriffinCanCode/traceprobe/internal/api/middleware"
	"github.com/GriffinCanCode/traceprobe/internal/client"
	"github.com/GriffinCanCode/traceprobe/internal/domain/probe"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/cache"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/config"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/executor"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/logging"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/messaging"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/scheduler"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/tracing"
)

// Server wraps the HTTP server and the probe machinery behind it
type Server struct {
	config     *config.Config
	router     *gin.Engine
	httpServer *http.Server
	listener   net.Listener

	logger    *logging.Logger
	metrics   *monitoring.Metrics
	tracer    *tracing.Tracer
	executor  *executor.Executor
	broker    *messaging.Broker
	container *messaging.Container
	scheduler *scheduler.Scheduler
	clients   []*client.Client

	closeOnce sync.Once
	closeErr  error
}

// Option configures a Server
type Option func(*Server)

// WithLogger replaces the logger built from config
func WithLogger(logger *logging.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithListener serves on ln instead of listening on the configured address
func WithListener(ln net.Listener) Option {
	return func(s *Server) {
		s.listener = ln
	}
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{config: cfg}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		logCfg := logging.DefaultConfig()
		if cfg.Logging.Development {
			logCfg = logging.DevelopmentConfig()
		}
		if cfg.Logging.Level != "" {
			logCfg.Level = cfg.Logging.Level
		}
		logger, err := logging.New(logCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		s.logger = logger
	}
	logger := s.logger

	logger.Info("Initializing probe server",
		zap.String("addr", cfg.Server.Address()),
		zap.String("self_base_url", cfg.Probe.SelfBaseURL),
		zap.String("service", cfg.Tracing.ServiceName),
	)

	s.metrics = monitoring.NewMetrics()
	s.tracer = tracing.New(cfg.Tracing.ServiceName, logger.Named("tracing").Logger,
		tracing.WithBuffer(cfg.Tracing.Buffer),
		tracing.WithMetrics(s.metrics),
	)

	execOpts := []executor.Option{executor.WithMetrics(s.metrics)}
	if cfg.Executor.PropagateContext {
		execOpts = append(execOpts, executor.WithDecorator(executor.PropagateContext()))
	}
	s.executor = executor.New(executor.Config{
		NamePrefix:    cfg.Executor.NamePrefix,
		PoolSize:      cfg.Executor.PoolSize,
		QueueCapacity: cfg.Executor.QueueCapacity,
	}, logger, execOpts...)

	s.broker = messaging.NewBroker(cfg.Messaging.QueueBuffer, messaging.WithBrokerMetrics(s.metrics))
	template := messaging.NewTemplate(s.broker, s.tracer, logger)
	caches := cache.NewManager(cfg.Cache.Size, cache.WithMetrics(s.metrics))

	clientCfg := func(name, baseURL string) client.Config {
		return client.Config{
			Name:       name,
			BaseURL:    baseURL,
			Timeout:    cfg.Client.Timeout.Duration,
			RetryCount: cfg.Client.RetryCount,
			RateLimit:  cfg.Client.RateLimit,
			LogFull:    cfg.Client.LogFull,
		}
	}
	self := client.New(clientCfg("self", cfg.Probe.SelfBaseURL), s.tracer, logger, client.WithMetrics(s.metrics))
	testService := client.New(clientCfg("test-service", cfg.Probe.TestServiceURL), s.tracer, logger, client.WithMetrics(s.metrics))
	s.clients = []*client.Client{self, testService}

	async := probe.NewAsyncService(s.executor, logger)
	flows := probe.NewFlows(probe.FlowsConfig{
		PrimaryQueue: cfg.Messaging.PrimaryQueue,
		UseFeign:     cfg.Probe.Test0UseFeign,
	}, self, client.NewTestServiceClient(testService), s.executor, async, template, logger)
	values := probe.NewCachedValueService(probe.NewValueService(logger), caches, logger)

	listeners := probe.NewListeners(probe.ListenersConfig{
		PrimaryQueue:   cfg.Messaging.PrimaryQueue,
		SecondaryQueue: cfg.Messaging.SecondaryQueue,
		Concurrency:    cfg.Messaging.ListenerConcurrency,
	}, self, template, s.tracer, logger)
	s.container = messaging.NewContainer(s.broker, s.tracer, logger,
		messaging.WithErrorHandler(probe.NewErrorHandler(self, s.tracer, logger)),
		messaging.WithContainerMetrics(s.metrics),
	)
	for _, ep := range listeners.Endpoints() {
		if err := s.container.Register(ep); err != nil {
			return nil, fmt.Errorf("failed to register listener: %w", err)
		}
	}

	s.scheduler = scheduler.New(s.tracer, logger.Named("scheduler"), scheduler.WithMetrics(s.metrics))
	if cfg.Scheduler.Enabled {
		for _, job := range probe.Jobs(flows, cfg.Scheduler.Test0InitialDelay.Duration, cfg.Scheduler.Test0FixedDelay.Duration) {
			if err := s.scheduler.Register(job); err != nil {
				return nil, fmt.Errorf("failed to register job: %w", err)
			}
		}
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true

	router.Use(tracing.HTTPMiddleware(s.tracer))
	router.Use(monitoring.Middleware(s.metrics))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Problems(logger))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
			zap.Bool("global", cfg.RateLimit.Global),
		)
		limitCfg := middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}
		if cfg.RateLimit.Global {
			router.Use(middleware.GlobalRateLimit(limitCfg))
		} else {
			router.Use(middleware.RateLimit(limitCfg))
		}
	}
	router.NoRoute(middleware.NotFound())
	router.NoMethod(middleware.MethodNotAllowed())

	handlers := apihttp.NewHandlers(flows, values, s.tracer, &apihttp.StatsAggregator{
		Metrics:  s.metrics,
		Executor: s.executor,
		Broker:   s.broker,
		Caches:   caches,
		Tracer:   s.tracer,
		Clients:  s.clients,
	})
	apihttp.Register(router, handlers, s.metrics.Handler())

	s.router = router
	s.httpServer = &http.Server{
		Addr:    cfg.Server.Address(),
		Handler: router,
	}

	logger.Info("Server initialized successfully")
	return s, nil
}

// Handler returns the HTTP handler, for tests that bypass the listener
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the listeners, the scheduler and the HTTP server. It blocks
// until the server stops and returns nil after a graceful Close.
func (s *Server) Run() error {
	if err := s.container.Start(); err != nil {
		return fmt.Errorf("failed to start listeners: %w", err)
	}
	if err := s.scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	ln := s.listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", s.httpServer.Addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
		}
	}

	s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Close stops intake first, then drains the async machinery. It is safe to
// call more than once.
func (s *Server) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.closeErr = s.close(ctx)
	})
	return s.closeErr
}

const idleReapInterval = 50 * time.Millisecond

func (s *Server) reapIdleConnections() (stop func()) {
	closeIdle := func() {
		for _, c := range s.clients {
			c.CloseIdleConnections()
		}
	}
	closeIdle()

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(idleReapInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				closeIdle()
			}
		}
	}()

	return func() {
		close(done)
		<-finished
	}
}

func (s *Server) close(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	var result *multierror.Error

	s.scheduler.Stop()

	// Our own clients keep connections open to this server; in-flight
	// probe chains can leave more behind while Shutdown waits.
	stopReaping := s.reapIdleConnections()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to shut down http server: %w", err))
	}
	stopReaping()

	if err := s.container.Stop(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	s.broker.Close()

	if err := s.executor.Shutdown(ctx); err != nil {
		result = multierror.Append(result, err)
	}

	s.tracer.Close()

	if err := result.ErrorOrNil(); err != nil {
		s.logger.Error("Shutdown finished with errors", zap.Error(err))
	} else {
		s.logger.Info("Shutdown complete")
	}

	// Sync fails on terminals and pipes; nothing useful to do about it.
	_ = s.logger.Sync()

	return result.ErrorOrNil()
}
