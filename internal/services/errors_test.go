package services

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := fmt.Errorf("rename failed")
	err := Wrap(ErrFilesystem, "executor", "move file", "Failed to move file", base)
	if !errors.Is(err, ErrFilesystem) {
		t.Error("wrapped error should match ErrFilesystem")
	}
	if !errors.Is(err, base) {
		t.Error("wrapped error should preserve the cause")
	}
}

func TestWrapNilMarkerDefaultsToFilesystem(t *testing.T) {
	err := Wrap(nil, "executor", "move file", "", nil)
	if !errors.Is(err, ErrFilesystem) {
		t.Error("nil marker should default to ErrFilesystem")
	}
}

func TestWrapDetailComposition(t *testing.T) {
	err := Wrap(ErrClassifier, "pipeline", "classify batch", "provider rejected request", nil)
	want := "classifier error: pipeline: classify batch: provider rejected request"
	if err.Error() != want {
		t.Errorf("error text: got %q, want %q", err.Error(), want)
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(Wrap(ErrPlanValidation, "planner", "validate", "source missing", nil)) {
		t.Error("plan validation failures are fatal")
	}
	if !IsFatal(Wrap(ErrConfiguration, "cli", "load", "bad config", nil)) {
		t.Error("configuration failures are fatal")
	}
	if IsFatal(Wrap(ErrFilesystem, "executor", "move", "permission denied", nil)) {
		t.Error("filesystem failures are recovered locally, not fatal")
	}
	if IsFatal(Wrap(ErrClassifierTimeout, "pipeline", "classify", "deadline", nil)) {
		t.Error("classifier timeouts are recovered locally, not fatal")
	}
}
