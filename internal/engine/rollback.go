package engine

import (
	"context"
	"os"
	"path/filepath"

	"curator/internal/logging"
	"curator/internal/plan"
	"curator/internal/services"
	"curator/internal/txlog"
)

// Rollback reverses every entry of a transaction log in strict reverse order,
// so children move back before the folder that contained them. A destination
// that no longer exists is recorded against the entry and the rollback
// continues; everything that can be reversed is reversed.
func (e *Executor) Rollback(ctx context.Context, log *txlog.Log, dryRun bool) (*Result, error) {
	result := &Result{RunID: log.ID, DryRun: dryRun}

	if !dryRun {
		lock, err := e.acquireLock()
		if err != nil {
			return nil, err
		}
		defer e.releaseLock(lock)
	}

	for i := len(log.Entries) - 1; i >= 0; i-- {
		entry := log.Entries[i]
		op := entry.Operation
		reversed := plan.Operation{
			Kind:        op.Kind,
			Source:      op.Destination,
			Destination: op.Source,
			Confidence:  op.Confidence,
			Reasoning:   op.Reasoning,
			Status:      plan.StatusApproved,
		}

		if err := ctx.Err(); err != nil {
			return result, services.Wrap(services.ErrFilesystem, "engine", "rollback", "canceled", err)
		}

		if dryRun {
			reversed.Status = plan.StatusReverted
			result.record(reversed)
			continue
		}

		if _, err := os.Lstat(reversed.Source); err != nil {
			reversed.Status = plan.StatusFailed
			reversed.Error = services.Wrap(services.ErrMissingDestination, "engine", "rollback",
				reversed.Source, nil).Error()
			result.record(reversed)
			e.logger.Warn("rollback entry skipped, destination missing",
				logging.String("path", reversed.Source))
			continue
		}

		if err := os.MkdirAll(filepath.Dir(reversed.Destination), 0o755); err != nil {
			reversed.Status = plan.StatusFailed
			reversed.Error = services.Wrap(services.ErrFilesystem, "engine", "rollback",
				"recreate original parent", err).Error()
			result.record(reversed)
			continue
		}

		if err := move(reversed.Source, reversed.Destination, e.preserveTimes); err != nil {
			reversed.Status = plan.StatusFailed
			reversed.Error = services.Wrap(services.ErrFilesystem, "engine", "rollback",
				reversed.Source, err).Error()
			result.record(reversed)
			e.logger.Warn("rollback move failed",
				logging.String("from", reversed.Source),
				logging.String("to", reversed.Destination),
				logging.Error(err))
			continue
		}

		reversed.Status = plan.StatusReverted
		result.record(reversed)
		e.logger.Info("reverted",
			logging.String("from", reversed.Source),
			logging.String("to", reversed.Destination))
	}

	if !dryRun {
		e.logger.Info("rollback complete",
			logging.String("run_id", log.ID),
			logging.Int("reverted", result.FileMoves+result.FolderMoves),
			logging.Int("errors", result.Errors))
	}
	return result, nil
}
