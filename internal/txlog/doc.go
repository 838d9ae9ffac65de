// Package txlog persists the durable, append-only transaction log for one
// execution run.
//
// The log is written entry by entry while the executor works, not after the
// batch: a crash mid-run leaves a journal that reflects exactly the moves that
// happened, which is the property the rollback engine depends on. Once a run
// ends the journal is finalized into a single human-readable JSON document
// carrying the run summary; both forms load identically.
//
// Run identifiers are ULIDs, so log filenames sort chronologically and
// "latest" is just the lexicographic maximum.
package txlog
