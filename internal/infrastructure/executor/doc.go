// Package executor provides a fixed pool of named worker goroutines.
//
// Workers are named <prefix><n>, e.g. GTX-1, and the name is available to
// logs through logging.WorkerFrom. Without a decorator a task only sees its
// worker's context, so the submitter's trace id is gone; PropagateContext
// installs the submitter's values so the trace survives the hop.
package executor
