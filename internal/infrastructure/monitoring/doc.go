/*
Package monitoring provides Prometheus metrics for the probe service.

# Overview

Each Metrics value owns a prometheus.Registry with the Go and process
collectors attached. Counters cover inbound HTTP requests, outbound client
calls, executor tasks, scheduled runs, queue messages, cache lookups and
dropped spans.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "self", "GET")
	// ... perform call ...
	timer.Stop("200")

Components accept a *Metrics that may be nil; every Record method is a no-op
on a nil receiver.
*/
package monitoring
