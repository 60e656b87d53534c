// Package trace records spans of a splice run: commands, phases, files and
// single usage sites.
//
// Tracing is enabled from the command line:
//
//	splice inline --trace=- --trace-level=detail src/a.kt:12:5
//
// Implementations:
//
//   - Nop: no-op tracer used when tracing is off
//   - StreamTracer: writes every event immediately
//   - RingTracer: keeps the last events in memory; with LevelError it is
//     printed by CrashDump only when the command fails
//   - MultiTracer: fans events out to several tracers
//
// Levels select scopes: LevelPhase emits command and phase spans,
// LevelDetail adds files, LevelDebug adds every usage site.
//
// Tracers travel in a context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	sp := trace.Begin(trace.FromContext(ctx), trace.ScopePhase, "find-usages", 0)
//	defer sp.End("")
package trace
