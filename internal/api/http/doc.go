// Package http provides the HTTP handlers and routing of the probe service.
//
// Endpoints:
//   - Status: /, /health, /metrics
//   - Call chains: /test0, /test1/:from, /test2/:from
//   - Queues: /jms, /jms-error-handler
//   - Errors: /exception
//   - Other: /cache, /custom-trace
//
// Probe endpoints reply 200 with an empty body. Failures are attached with
// c.Error and rendered by the problem middleware.
//
// Example Usage:
//
//	handlers := http.NewHandlers(flows, values, tracer, stats)
//	http.Register(router, handlers, metrics.Handler())
package http
