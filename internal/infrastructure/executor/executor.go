package executor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/logging"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/traceprobe/internal/shared/id"
	"go.uber.org/zap"
)

var (
	ErrQueueFull      = errors.New("executor queue is full")
	ErrExecutorClosed = errors.New("executor is closed")
)

// Task is a unit of work run on a pool worker
type Task func(ctx context.Context)

// Config sizes the worker pool
type Config struct {
	NamePrefix    string
	PoolSize      int
	QueueCapacity int
}

// Stats is a point-in-time view of the executor
type Stats struct {
	Name          string `json:"name"`
	Workers       int    `json:"workers"`
	QueueCapacity int    `json:"queue_capacity"`
	Queued        int    `json:"queued"`
	Active        int64  `json:"active"`
	Submitted     uint64 `json:"submitted"`
	Completed     uint64 `json:"completed"`
	Rejected      uint64 `json:"rejected"`
	Panicked      uint64 `json:"panicked"`
}

type job struct {
	id   id.TaskID
	task Task
}

// Executor runs tasks on a fixed pool of named workers fed by a bounded queue
type Executor struct {
	cfg       Config
	logger    *logging.Logger
	metrics   *monitoring.Metrics
	decorator Decorator

	queue  chan job
	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool

	active    atomic.Int64
	submitted atomic.Uint64
	completed atomic.Uint64
	rejected  atomic.Uint64
	panicked  atomic.Uint64
}

// Option configures an Executor
type Option func(*Executor)

// WithDecorator wraps every submitted task
func WithDecorator(d Decorator) Option {
	return func(e *Executor) {
		e.decorator = d
	}
}

// WithMetrics records task lifecycle events
func WithMetrics(m *monitoring.Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

// New starts the worker pool
func New(cfg Config, logger *logging.Logger, opts ...Option) *Executor {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 8
	}
	if cfg.QueueCapacity < 0 {
		cfg.QueueCapacity = 0
	}
	if cfg.NamePrefix == "" {
		cfg.NamePrefix = "task-"
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	base, cancel := context.WithCancel(context.Background())
	e := &Executor{
		cfg:    cfg,
		logger: logger,
		queue:  make(chan job, cfg.QueueCapacity),
		base:   base,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(e)
	}

	for i := 1; i <= cfg.PoolSize; i++ {
		name := cfg.NamePrefix + strconv.Itoa(i)
		e.wg.Add(1)
		go e.worker(logging.WithWorker(base, name))
	}

	return e
}

// Execute queues task. ctx is only consulted by the decorator; the task never
// observes its cancellation.
func (e *Executor) Execute(ctx context.Context, task Task) error {
	if task == nil {
		return fmt.Errorf("executor %s: nil task", e.cfg.NamePrefix)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if e.decorator != nil {
		task = e.decorator(ctx, task)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		e.reject()
		return ErrExecutorClosed
	}

	select {
	case e.queue <- job{id: id.NewTaskID(), task: task}:
		e.submitted.Add(1)
		e.metrics.RecordTask(e.cfg.NamePrefix, monitoring.TaskSubmitted)
		return nil
	default:
		e.reject()
		return ErrQueueFull
	}
}

func (e *Executor) reject() {
	e.rejected.Add(1)
	e.metrics.RecordTask(e.cfg.NamePrefix, monitoring.TaskRejected)
}

func (e *Executor) worker(ctx context.Context) {
	defer e.wg.Done()
	for j := range e.queue {
		e.run(ctx, j)
	}
}

func (e *Executor) run(ctx context.Context, j job) {
	e.active.Add(1)
	defer e.active.Add(-1)

	defer func() {
		if r := recover(); r != nil {
			e.panicked.Add(1)
			e.metrics.RecordTask(e.cfg.NamePrefix, monitoring.TaskPanicked)
			e.logger.For(ctx).Error("task panicked",
				zap.String("task_id", j.id.String()),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			return
		}
		e.completed.Add(1)
		e.metrics.RecordTask(e.cfg.NamePrefix, monitoring.TaskCompleted)
	}()

	j.task(ctx)
}

// Shutdown stops intake and waits for queued and running tasks. When ctx
// expires first, running tasks see their worker context cancelled.
func (e *Executor) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		close(e.queue)
	}
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.cancel()
		return nil
	case <-ctx.Done():
		e.cancel()
		return fmt.Errorf("executor %s shutdown: %w", e.cfg.NamePrefix, ctx.Err())
	}
}

// Stats returns executor counters
func (e *Executor) Stats() Stats {
	return Stats{
		Name:          e.cfg.NamePrefix,
		Workers:       e.cfg.PoolSize,
		QueueCapacity: e.cfg.QueueCapacity,
		Queued:        len(e.queue),
		Active:        e.active.Load(),
		Submitted:     e.submitted.Load(),
		Completed:     e.completed.Load(),
		Rejected:      e.rejected.Load(),
		Panicked:      e.panicked.Load(),
	}
}
