// Package logging assembles the structured slog loggers used by the daemon
// and the CLI.
//
// It owns the console and JSON handlers, level and output plumbing, and
// context-aware helpers that tag log lines with the barrel, station, actor
// and request they concern. A no-op logger is provided for tests and wiring
// code that cannot fail.
package logging
