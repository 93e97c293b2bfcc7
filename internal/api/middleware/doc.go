// Package middleware holds the Gin middleware of the probe's HTTP surface:
// problem rendering, panic recovery, CORS and per-IP rate limiting.
//
// Handlers report failures with c.Error; Problems, which runs after the
// handler returns, turns the last error into an RFC 7807 body carrying the
// current trace id.
package middleware
