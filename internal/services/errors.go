package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidOperation marks self-referential or malformed moves rejected
	// during planning. Operations tagged with it are never applied.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrPlanValidation marks a plan built from stale tree state (a source that
	// no longer exists). It aborts the whole plan before any mutation.
	ErrPlanValidation = errors.New("plan validation error")
	// ErrFilesystem marks per-operation move failures (permissions, disk full,
	// vanished source). Recorded and skipped; the batch continues.
	ErrFilesystem = errors.New("filesystem error")
	// ErrClassifier marks a classification backend failure for one batch.
	ErrClassifier = errors.New("classifier error")
	// ErrClassifierTimeout marks a classification call that exceeded its budget.
	ErrClassifierTimeout = errors.New("classifier timeout")
	// ErrMissingDestination marks a rollback entry whose destination no longer
	// exists. Recorded and skipped; the rollback continues.
	ErrMissingDestination = errors.New("missing destination")
	// ErrConfiguration marks unusable configuration discovered at wiring time.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrFilesystem
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether an error should abort a run outright rather than be
// recorded against a single operation or batch. Only pre-execution failures
// qualify; everything else is recovered locally so completed work is never
// thrown away.
func IsFatal(err error) bool {
	return errors.Is(err, ErrPlanValidation) || errors.Is(err, ErrConfiguration)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
