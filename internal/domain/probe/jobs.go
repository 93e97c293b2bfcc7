package probe

import (
	"time"

	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/scheduler"
)

// Jobs returns the scheduled probes
func Jobs(flows *Flows, initialDelay, fixedDelay time.Duration) []scheduler.Job {
	return []scheduler.Job{
		{
			Name:         "test0",
			InitialDelay: initialDelay,
			FixedDelay:   fixedDelay,
			Run:          flows.Test0,
		},
	}
}
