/*
Package probe implements the trace-propagation probes.

Each probe crosses one kind of asynchronous boundary and logs on both sides
of it, so the trace_id field in the logs shows whether the trace survived:

  - Flows: HTTP self calls, executor tasks and async methods
  - Listeners: queue producer to consumer hops
  - ErrorHandler: listener failure back into a new outbound call
  - Jobs: scheduled runs, each starting its own trace
  - CustomTrace: manually installed trace and span ids

Probes take their collaborators through small interfaces (Caller,
TestService) so tests can run them against an httptest server or a stub.
*/
package probe
