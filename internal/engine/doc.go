// Package engine applies planned move batches to the filesystem and reverses
// them from their transaction logs.
//
// Execution is best-effort per operation: a move that fails is recorded and
// skipped, never retried, and never aborts the batch. Every successful move is
// journaled before it is reported, which is what makes rollback trustworthy.
// Real runs are serialized on a file lock; dry runs touch nothing and take no
// lock.
package engine
