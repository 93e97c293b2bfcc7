package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/logging"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/traceprobe/internal/shared/id"
	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
)

// WorkerName is the worker every scheduled run is logged under
const WorkerName = "scheduling-1"

var ErrAlreadyStarted = errors.New("scheduler already started")

// Job is a task run with fixed-delay semantics: the next run is scheduled
// FixedDelay after the previous one finishes.
type Job struct {
	Name         string
	InitialDelay time.Duration
	FixedDelay   time.Duration
	Run          func(ctx context.Context) error
}

// Scheduler runs jobs, each in its own root span
type Scheduler struct {
	tracer  *tracing.Tracer
	logger  *logging.Logger
	metrics *monitoring.Metrics
	clock   clockz.Clock

	mu      sync.Mutex
	jobs    []Job
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithClock replaces the wall clock, mainly for tests
func WithClock(clock clockz.Clock) Option {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// WithMetrics records run outcomes
func WithMetrics(m *monitoring.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// New creates a scheduler
func New(tracer *tracing.Tracer, logger *logging.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Scheduler{
		tracer: tracer,
		logger: logger,
		clock:  clockz.RealClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a job. Jobs registered after Start are ignored until restart.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" {
		return fmt.Errorf("scheduler: job name is required")
	}
	if job.Run == nil {
		return fmt.Errorf("scheduler: job %s has no run function", job.Name)
	}
	if job.FixedDelay <= 0 {
		return fmt.Errorf("scheduler: job %s needs a positive fixed delay", job.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
	return nil
}

// Start launches one loop per registered job
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true

	ctx, cancel := context.WithCancel(logging.WithWorker(context.Background(), WorkerName))
	s.cancel = cancel

	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, job)
	}

	s.logger.Info("scheduler started", zap.Int("jobs", len(s.jobs)))
	return nil
}

// Stop cancels every loop and waits for in-flight runs
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()

	delay := job.InitialDelay
	for {
		if delay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-s.clock.After(delay):
			}
		} else if ctx.Err() != nil {
			return
		}

		s.runOnce(ctx, job)
		delay = job.FixedDelay
	}
}

// runOnce executes one run in a fresh root span. The loop context never
// carries a span, so every run starts a new trace.
func (s *Scheduler) runOnce(parent context.Context, job Job) {
	span, ctx := s.tracer.StartSpan(parent, job.Name)
	span.SetTag("span.kind", "scheduled")
	span.SetTag("run.id", id.NewRunID().String())

	start := s.clock.Now()
	status := monitoring.StatusSuccess

	defer func() {
		if r := recover(); r != nil {
			status = monitoring.StatusPanic
			span.SetError(fmt.Errorf("panic: %v", r))
			s.logger.For(ctx).Error("scheduled job panicked",
				zap.String("job", job.Name),
				zap.Any("panic", r),
			)
		}
		span.Finish()
		s.tracer.Submit(span)
		s.metrics.RecordScheduledRun(job.Name, status)
	}()

	if err := job.Run(ctx); err != nil {
		status = monitoring.StatusError
		span.SetError(err)
		s.logger.For(ctx).Error("scheduled job failed",
			zap.String("job", job.Name),
			zap.Error(err),
			zap.Duration("elapsed", s.clock.Since(start)),
		)
	}
}
