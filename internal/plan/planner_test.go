package plan

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"curator/internal/paths"
	"curator/internal/services"
	"curator/internal/testsupport"
)

func newTestPlanner() *Planner {
	return NewPlanner(NewResolver(FolderConflictMerge, nil), nil)
}

func TestPlanAbortsOnMissingSource(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "exists.pdf"), 1)

	proposals := []Operation{
		NewFileMove(filepath.Join(dir, "exists.pdf"), filepath.Join(dir, "Docs", "exists.pdf")),
		NewFileMove(filepath.Join(dir, "missing.pdf"), filepath.Join(dir, "Docs", "missing.pdf")),
	}

	_, err := newTestPlanner().Plan(proposals)
	if !errors.Is(err, services.ErrPlanValidation) {
		t.Fatalf("expected ErrPlanValidation, got %v", err)
	}
}

func TestPlanDedupesBySourceKeepingHigherConfidence(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "x.pdf"), 1)

	low := NewFileMove(filepath.Join(dir, "x.pdf"), filepath.Join(dir, "Misc", "x.pdf"))
	low.Confidence = 0.5
	high := NewFileMove(filepath.Join(dir, "x.pdf"), filepath.Join(dir, "Invoices", "x.pdf"))
	high.Confidence = 0.9

	result, err := newTestPlanner().Plan([]Operation{low, high})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(result.Ops) != 1 {
		t.Fatalf("planned ops: got %d, want 1", len(result.Ops))
	}
	if result.Ops[0].Destination != filepath.Join(dir, "Invoices", "x.pdf") {
		t.Errorf("kept the wrong proposal: %s", result.Ops[0].Destination)
	}
	if len(result.Rejected) != 1 {
		t.Errorf("dropped duplicate should be recorded, got %d rejected", len(result.Rejected))
	}
}

func TestPlanDedupeTieKeepsFirstSeen(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "x.pdf"), 1)

	first := NewFileMove(filepath.Join(dir, "x.pdf"), filepath.Join(dir, "First", "x.pdf"))
	second := NewFileMove(filepath.Join(dir, "x.pdf"), filepath.Join(dir, "Second", "x.pdf"))

	result, err := newTestPlanner().Plan([]Operation{first, second})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if result.Ops[0].Destination != filepath.Join(dir, "First", "x.pdf") {
		t.Errorf("tie should keep the first-seen proposal, kept %s", result.Ops[0].Destination)
	}
}

func TestPlanOrdersFoldersBeforeFiles(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "x.pdf"), 1)
	testsupport.WriteFile(t, filepath.Join(dir, "srcdir", "a.txt"), 1)
	testsupport.WriteFile(t, filepath.Join(dir, "deeper", "b.txt"), 1)

	proposals := []Operation{
		NewFileMove(filepath.Join(dir, "x.pdf"), filepath.Join(dir, "out", "sub", "x.pdf")),
		NewFolderMove(filepath.Join(dir, "deeper"), filepath.Join(dir, "out", "sub", "deeper")),
		NewFolderMove(filepath.Join(dir, "srcdir"), filepath.Join(dir, "out", "srcdir")),
	}

	result, err := newTestPlanner().Plan(proposals)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(result.Ops) != 3 {
		t.Fatalf("planned ops: got %d, want 3", len(result.Ops))
	}
	if result.Ops[0].Kind != KindFolderMove || result.Ops[1].Kind != KindFolderMove {
		t.Error("folder moves must precede file moves")
	}
	if paths.Depth(result.Ops[0].Destination) > paths.Depth(result.Ops[1].Destination) {
		t.Error("folder moves must be ordered by destination depth ascending")
	}
	if result.Ops[2].Kind != KindFileMove {
		t.Error("file move must come last")
	}
}

func TestPlanNeverEmitsDestinationInsideSource(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "folder", "a.txt"), 1)

	proposals := []Operation{
		NewFolderMove(filepath.Join(dir, "folder"), filepath.Join(dir, "folder", "nested")),
	}

	result, err := newTestPlanner().Plan(proposals)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(result.Ops) != 0 {
		t.Errorf("self-referential move must not be planned, got %d ops", len(result.Ops))
	}
	if len(result.Rejected) != 1 {
		t.Errorf("rejection should be recorded for reporting, got %d", len(result.Rejected))
	}
	for _, op := range result.Ops {
		if paths.IsDescendant(op.Source, op.Destination) {
			t.Errorf("planned op targets its own interior: %s -> %s", op.Source, op.Destination)
		}
	}
}

func TestPlanCarriesPreRejectedProposalsThrough(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "x.pdf"), 1)

	rejected := NewFileMove(filepath.Join(dir, "low.pdf"), filepath.Join(dir, "Docs", "low.pdf")).
		Rejected("confidence 0.30 below threshold 0.60")

	result, err := newTestPlanner().Plan([]Operation{
		NewFileMove(filepath.Join(dir, "x.pdf"), filepath.Join(dir, "Docs", "x.pdf")),
		rejected,
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(result.Ops) != 1 {
		t.Fatalf("planned ops: got %d, want 1", len(result.Ops))
	}
	if len(result.Rejected) != 1 {
		t.Fatalf("pre-rejected proposal should be retained, got %d", len(result.Rejected))
	}
	// Pre-rejected sources are not stat'ed; they are never applied.
	if _, err := os.Stat(filepath.Join(dir, "low.pdf")); err == nil {
		t.Fatal("test setup: low.pdf should not exist")
	}
}
