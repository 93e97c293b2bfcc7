package probe

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/executor"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/logging"
	"go.uber.org/zap"
)

// AsyncService runs fire-and-forget work on the shared executor
type AsyncService struct {
	executor *executor.Executor
	logger   *logging.Logger
}

// NewAsyncService creates an async service backed by exec
func NewAsyncService(exec *executor.Executor, logger *logging.Logger) *AsyncService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &AsyncService{executor: exec, logger: logger}
}

// SomeAsyncMethod logs from an executor worker. The call returns once the
// task is queued; an error means the executor rejected it.
func (s *AsyncService) SomeAsyncMethod(ctx context.Context, from string) error {
	err := s.executor.Execute(ctx, func(ctx context.Context) {
		s.logger.For(ctx).Info("async called", zap.String("from", from))
	})
	if err != nil {
		return fmt.Errorf("async call from %s: %w", from, err)
	}
	return nil
}
