// Package diag defines the diagnostic model shared by the analysis, the
// language server and the CLI.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – Off, Hint, Info, Warning or Error; Off diagnostics are never stored.
//   - Code – compact numeric identifier (see codes.go) with a stable string form.
//   - Message – human oriented text; keep it short and actionable.
//   - URI and Range – the file and the zero-based UTF-16 range of the issue.
//   - Notes – optional related locations, e.g. the parent that sources a file.
//
// # Emitting diagnostics
//
// Producers use a Reporter. BagReporter aggregates into a Bag, which supports
// sorting, deduplication and line filtering; DedupReporter drops repeats
// before they reach the next reporter.
//
// Package diag does no IO. The language server converts diagnostics into
// publishDiagnostics payloads and the CLI renders them with FormatShort.
package diag
