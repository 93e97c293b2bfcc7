// Package logging provides structured logging using uber/zap.
//
// Two output modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Trace correlation:
//
// Every probe hop logs through For(ctx), which stamps the line with the
// trace_id and span_id of the span in ctx and the worker running it. Grepping
// one trace id across the output shows whether the id survived each hop.
//
// Example Usage:
//
//	logger, err := logging.New(logging.DefaultConfig())
//	logger.For(ctx).Info("test1 called", zap.String("from", from))
package logging
