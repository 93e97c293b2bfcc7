// Package server wires the probe service together: configuration, logging,
// tracing, metrics, the executor, the in-process broker with its listener
// container, the scheduler, outbound clients and the Gin router.
//
// Middleware runs in this order: tracing, metrics, recovery, problems, CORS,
// rate limiting.
package server
