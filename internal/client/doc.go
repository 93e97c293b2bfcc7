/*
Package client provides the outbound HTTP clients the probe calls itself with.

Client wraps resty over a go-retryablehttp transport, adds a rate limiter and a
circuit breaker, and runs every call in a client span whose trace context is
injected into the request headers (traceparent plus X-Trace-ID / X-Span-ID).

	c := client.New(client.Config{Name: "self", BaseURL: "http://localhost:8081"}, tracer, logger)
	resp, err := c.Get(ctx, "/test2/test1")

TestServiceClient is the typed counterpart for the test service.
*/
package client
