// Package config provides 12-factor configuration for the probe service.
//
// Values are layered: Default() first, then an optional YAML or TOML file
// named by CONFIG_FILE, then environment variables. CLI flags in cmd/server
// override the result.
//
// Configuration Sections:
//   - Server: listener address and shutdown timeout
//   - Probe: base URLs for self calls and the declarative test-service client
//   - Client: outbound timeout, retries, rate limit, debug logging
//   - Executor: worker pool size, queue capacity, worker name prefix
//   - Scheduler: test0 fixed delay
//   - Messaging: queue names, buffer, listener concurrency
//   - Cache, Tracing, Logging, RateLimit
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s\n", cfg.Server.Address())
package config
