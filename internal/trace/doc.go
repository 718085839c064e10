// Package trace is the toolchain's structured event log.
//
// Commands enable it with flags:
//
//	tether build --trace=- --trace-level=detail
//
// Tracers:
//
//   - Nop: disabled tracing
//   - StreamTracer: writes each event as it happens (text or NDJSON)
//   - RingTracer: keeps the last N events for dumping after a failure
//   - MultiTracer: fans out to several tracers
//
// Levels select scopes: phase shows driver and pass spans, detail adds
// per-unit spans, debug adds one event per directive.
//
// The tracer travels in a context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "compile", 0)
//	defer span.End("")
package trace
