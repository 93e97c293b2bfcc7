// Package main is the entry point for the trace-propagation probe server.
//
// The server exposes probe endpoints whose work crosses HTTP calls, executor
// tasks, scheduled runs and in-process queues. Every log line carries
// trace_id and span_id, so grepping one trace id shows which hops kept it.
//
// Configuration:
//   - Defaults, then the file named by CONFIG_FILE (.yaml or .toml)
//   - Environment variables
//   - CLI flags (override both)
//
// Usage:
//
//	# Production mode
//	./server -port 8081
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown bounded by SHUTDOWN_TIMEOUT
package main
