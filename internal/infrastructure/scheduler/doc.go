// Package scheduler runs fixed-delay jobs, each run in a new root span on
// the scheduling-1 worker. Failures and panics are logged and the schedule
// continues. Time comes from a clockz.Clock so tests can advance it.
package scheduler
