package probe

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/executor"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/logging"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/messaging"
	"github.com/GriffinCanCode/traceprobe/internal/shared/problem"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	PrimaryMessage   = "SOME MESSAGE to queue 1 !!!"
	SecondaryMessage = "SOME MESSAGE From Test Queue 1 to Queue 2"
	FeignFrom        = "test 0 using feign client"
)

// Caller issues GET requests relative to a base URL
type Caller interface {
	Get(ctx context.Context, path string) (*resty.Response, error)
}

// TestService is the declarative client for the test service
type TestService interface {
	Test1(ctx context.Context, from string) error
}

// FlowsConfig holds the knobs of the HTTP probes
type FlowsConfig struct {
	PrimaryQueue string
	// UseFeign makes Test0 also call the declarative client
	UseFeign bool
}

// Flows implements the probes behind the HTTP endpoints
type Flows struct {
	cfg         FlowsConfig
	self        Caller
	testService TestService
	executor    *executor.Executor
	async       *AsyncService
	template    *messaging.Template
	logger      *logging.Logger
}

// NewFlows wires the probes. testService may be nil when UseFeign is off.
func NewFlows(cfg FlowsConfig, self Caller, testService TestService, exec *executor.Executor,
	async *AsyncService, template *messaging.Template, logger *logging.Logger) *Flows {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Flows{
		cfg:         cfg,
		self:        self,
		testService: testService,
		executor:    exec,
		async:       async,
		template:    template,
		logger:      logger,
	}
}

// Test0 fans out: a self call, an executor task that makes more calls, an
// async call and optionally a declarative client call.
func (f *Flows) Test0(ctx context.Context) error {
	f.logger.For(ctx).Info("test0 - schedule called")

	if _, err := f.self.Get(ctx, "/test1/test0"); err != nil {
		return err
	}

	err := f.executor.Execute(ctx, func(ctx context.Context) {
		log := f.logger.For(ctx)
		log.Info("test0 - running task on executor")

		for _, path := range []string{"/test1/test0.executor1", "/jms"} {
			if _, err := f.self.Get(ctx, path); err != nil {
				log.Error("test0 - executor call failed", zap.String("path", path), zap.Error(err))
				return
			}
		}
		if err := f.async.SomeAsyncMethod(ctx, "test0.executor2"); err != nil {
			log.Error("test0 - async call failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("test0 task: %w", err)
	}

	if err := f.async.SomeAsyncMethod(ctx, "test0"); err != nil {
		return err
	}

	if f.cfg.UseFeign && f.testService != nil {
		if err := f.testService.Test1(ctx, FeignFrom); err != nil {
			f.logger.For(ctx).Error("test0 - feign call failed", zap.Error(err))
		}
	}
	return nil
}

// Test1 calls test2 and fails for callers whose name contains "feign"
func (f *Flows) Test1(ctx context.Context, from string) error {
	f.logger.For(ctx).Info("test1 called", zap.String("from", from))

	if _, err := f.self.Get(ctx, "/test2/test1"); err != nil {
		return err
	}
	if err := f.async.SomeAsyncMethod(ctx, "test1"); err != nil {
		return err
	}

	if strings.Contains(from, "feign") {
		return problem.New(http.StatusInternalServerError, "Something", "Something")
	}
	return nil
}

// Test2 is the leaf of the call chains
func (f *Flows) Test2(ctx context.Context, from string) {
	f.logger.For(ctx).Info("test2 called", zap.String("from", from))
}

// JMSErrorHandler is the endpoint error handling can report to
func (f *Flows) JMSErrorHandler(ctx context.Context) {
	f.logger.For(ctx).Info("jms - got some error, handling it on this api")
}

// JMS queues a message for the primary listener between two async calls
func (f *Flows) JMS(ctx context.Context) error {
	f.logger.For(ctx).Info("jms - queuing message")

	if err := f.async.SomeAsyncMethod(ctx, "jms-start"); err != nil {
		return err
	}
	if _, err := f.self.Get(ctx, "/test2/jms"); err != nil {
		return err
	}
	if err := f.template.ConvertAndSend(ctx, f.cfg.PrimaryQueue, PrimaryMessage); err != nil {
		return fmt.Errorf("queue message: %w", err)
	}
	return f.async.SomeAsyncMethod(ctx, "jms-end")
}

// Exception always fails with 502
func (f *Flows) Exception(context.Context) error {
	return problem.New(http.StatusBadGateway, http.StatusText(http.StatusBadGateway), "custom exception")
}
