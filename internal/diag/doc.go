// Package diag defines the diagnostic model shared by the lexer, parser,
// semantic oracle and the inliner.
//
// Diagnostic is the central record: Severity, a compact numeric Code with a
// stable string form (LEX/SYN/SEM/INL/IO/PRJ/OBS ranges), a short Message, the
// Primary span and optional Notes and Fixes.
//
// Producers emit through a Reporter so that storage stays pluggable. The
// parser builds diagnostics with ReportError/ReportWarning and chains WithNote
// before Emit; the usage replacer reports skipped usages as warnings. Bag
// collects diagnostics for rendering by internal/diagfmt.
//
// Fix carries structured TextEdits. OldText acts as a guard that the fix
// engine (internal/fix) checks before touching a file.
package diag
