/*
Package messaging provides in-process queues with trace propagation.

A Template encodes a payload, opens a producer span and writes the trace
context into the message headers. A Container runs consumer goroutines per
Endpoint; each delivery extracts the producer's context and runs the handler
in a consumer span of the same trace.

Failures are wrapped in ListenerExecutionError and given to the configured
ErrorHandler. The handler receives no context, so it must re-enter the
consumer span from the error itself if it wants the trace to continue.
*/
package messaging
