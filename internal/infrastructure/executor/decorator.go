package executor

import (
	"context"

	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/logging"
)

// Decorator wraps a task at submission time, while the submitter's context
// is still available.
type Decorator func(ctx context.Context, task Task) Task

// PropagateContext carries the submitter's context values (span context,
// logger fields) into the task. The task is detached from the submitter's
// cancellation but still stops when its worker is shut down.
func PropagateContext() Decorator {
	return func(submitter context.Context, task Task) Task {
		detached := context.WithoutCancel(submitter)
		return func(worker context.Context) {
			ctx, cancel := context.WithCancel(detached)
			defer cancel()
			stop := context.AfterFunc(worker, cancel)
			defer stop()

			task(logging.WithWorker(ctx, logging.WorkerFrom(worker)))
		}
	}
}
