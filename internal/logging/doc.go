// Package logging assembles the structured slog loggers used across Curator.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so run code automatically tags
// log lines with run IDs, strategy names, and batch indexes. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the system.
package logging
