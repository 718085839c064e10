// Package diag defines the error kinds and diagnostic records shared by the
// codec, the typer and the directive compiler.
//
// # Errors
//
// Every fatal condition is reported as a *Error carrying a Code. Codes are
// grouped by the component that raises them:
//
//   - 1xxx – signature files (codec)
//   - 2xxx – object definitions (typer)
//   - 3xxx – directive sources (compiler)
//   - 4xxx – inputs handed over by the driver
//
// Code itself implements error, so callers match kinds with errors.Is:
//
//	if errors.Is(err, diag.MissingParentType) { ... }
//
// # Diagnostics
//
// Non-fatal findings (for example an unknown directive while leniency is
// active) are emitted through a Reporter. BagReporter collects them into a
// Bag, which the CLI sorts and renders via internal/diagfmt.
//
// Package diag performs no IO and no formatting beyond Error().
package diag
