package engine

import "curator/internal/plan"

// Result aggregates one execution or rollback run. Operations carries every
// attempted operation with its final status so callers can render
// per-operation reports; the counters summarize the same data.
type Result struct {
	RunID       string
	DryRun      bool
	Total       int
	FileMoves   int
	FolderMoves int
	Errors      int
	LogPath     string
	Operations  []plan.Operation
}

func (r *Result) record(op plan.Operation) {
	r.Operations = append(r.Operations, op)
	r.Total++
	switch op.Status {
	case plan.StatusFailed, plan.StatusRejected:
		r.Errors++
		return
	}
	switch op.Kind {
	case plan.KindFolderMove:
		r.FolderMoves++
	default:
		r.FileMoves++
	}
}
