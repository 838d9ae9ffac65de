// Package services provides the shared error taxonomy and context plumbing
// used across Curator components.
//
// Errors are tagged with sentinel markers (ErrPlanValidation, ErrFilesystem,
// ErrClassifier, ...) so callers can classify failures without string
// matching. The split matters: per-operation and per-batch failures are
// recorded and skipped, while plan validation and configuration failures abort
// before any mutation happens.
package services
