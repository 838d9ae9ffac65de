package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofrs/flock"

	"curator/internal/logging"
	"curator/internal/plan"
	"curator/internal/services"
	"curator/internal/txlog"
)

// Executor applies a planned batch of moves against the filesystem and records
// every successful move in a transaction log. Real runs hold an exclusive file
// lock so two executors never interleave moves against the same tree.
type Executor struct {
	logger        *slog.Logger
	logDir        string
	lockPath      string
	preserveTimes bool
	now           func() time.Time
}

// Option customizes an Executor.
type Option func(*Executor)

// WithPreserveTimestamps keeps source timestamps on moves that cross a
// filesystem boundary.
func WithPreserveTimestamps(enabled bool) Option {
	return func(e *Executor) { e.preserveTimes = enabled }
}

// WithClock overrides the time source used for run identifiers and entry
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// New constructs an Executor writing transaction logs under logDir and
// serializing real runs on lockPath.
func New(logger *slog.Logger, logDir, lockPath string, opts ...Option) *Executor {
	e := &Executor{
		logger:   logging.NewComponentLogger(logger, "engine"),
		logDir:   logDir,
		lockPath: lockPath,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute applies the approved operations in ops, in order. Failures are
// recorded against the operation and the batch continues; only context
// cancellation or a broken transaction log stops the run early. Dry runs
// evaluate the batch without touching the filesystem or writing a log.
func (e *Executor) Execute(ctx context.Context, ops []plan.Operation, dryRun bool) (*Result, error) {
	result := &Result{DryRun: dryRun}
	if dryRun {
		for _, op := range ops {
			result.record(op)
		}
		return result, nil
	}

	lock, err := e.acquireLock()
	if err != nil {
		return nil, err
	}
	defer e.releaseLock(lock)

	writer, err := txlog.NewWriter(e.logDir, e.now())
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "engine", "open transaction log", "", err)
	}
	result.RunID = writer.ID()
	result.LogPath = writer.Path()

	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("run canceled mid-batch",
				logging.String("run_id", writer.ID()),
				logging.Int("applied", writer.Len()))
			if _, finErr := writer.Finalize(result.Errors); finErr != nil {
				e.logger.Error("finalize after cancel failed", logging.Error(finErr))
			}
			return result, services.Wrap(services.ErrFilesystem, "engine", "execute", "canceled", err)
		}

		if moveErr := move(op.Source, op.Destination, e.preserveTimes); moveErr != nil {
			failed := op
			failed.Status = plan.StatusFailed
			failed.Error = services.Wrap(services.ErrFilesystem, "engine", "move", op.Source, moveErr).Error()
			result.record(failed)
			e.logger.Warn("move failed",
				logging.String("source", op.Source),
				logging.String("destination", op.Destination),
				logging.Error(moveErr))
			continue
		}

		if _, appendErr := writer.Append(op, e.now()); appendErr != nil {
			// The move happened but could not be journaled. Put the file back so
			// the log never under-describes the tree, then stop: a journal that
			// rejects writes cannot record anything that follows.
			if undoErr := move(op.Destination, op.Source, e.preserveTimes); undoErr != nil {
				e.logger.Error("undo after journal failure also failed",
					logging.String("source", op.Source),
					logging.String("destination", op.Destination),
					logging.Error(undoErr))
			}
			failed := op
			failed.Status = plan.StatusFailed
			failed.Error = appendErr.Error()
			result.record(failed)
			if _, finErr := writer.Finalize(result.Errors); finErr != nil {
				e.logger.Error("finalize after journal failure failed", logging.Error(finErr))
			}
			return result, services.Wrap(services.ErrFilesystem, "engine", "journal", op.Source, appendErr)
		}

		applied := op
		applied.Status = plan.StatusApplied
		result.record(applied)
		e.logger.Info("moved",
			logging.String("kind", string(op.Kind)),
			logging.String("source", op.Source),
			logging.String("destination", op.Destination))
	}

	if _, err := writer.Finalize(result.Errors); err != nil {
		return result, services.Wrap(services.ErrFilesystem, "engine", "finalize transaction log", "", err)
	}
	e.logger.Info("run complete",
		logging.String("run_id", result.RunID),
		logging.Int("moved", result.FileMoves+result.FolderMoves),
		logging.Int("errors", result.Errors),
		logging.String("log", result.LogPath))
	return result, nil
}

func (e *Executor) acquireLock() (*flock.Flock, error) {
	lock := flock.New(e.lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "engine", "acquire lock", e.lockPath, err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrFilesystem, "engine", "acquire lock",
			"another run is in progress", nil)
	}
	return lock, nil
}

func (e *Executor) releaseLock(lock *flock.Flock) {
	if err := lock.Unlock(); err != nil {
		e.logger.Warn("release lock failed", logging.Error(err))
	}
}
