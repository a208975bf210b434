// Package logging assembles structured slog loggers and formatting helpers used
// across imgvault.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so archive and catalog code can
// tag log lines with the experiment name, operation, and correlation ID of the
// running command. The package also provides a no-op logger for tests and
// wiring code that cannot fail.
package logging
