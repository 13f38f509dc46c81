// Package logging assembles structured slog loggers and formatting helpers used
// across autoname.
//
// It owns the console and JSON handlers, fans records out to the optional log
// file, and exposes context-aware helpers so worker code can tag log lines with
// the document's job handle, source path, and correlation ID. A no-op logger is
// provided for tests and wiring code that cannot fail.
package logging
