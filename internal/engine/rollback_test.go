package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"curator/internal/plan"
	"curator/internal/testsupport"
	"curator/internal/txlog"
)

func TestRollbackRestoresOriginalTree(t *testing.T) {
	exec, _ := newTestExecutor(t)
	root := t.TempDir()

	testsupport.WriteFileContent(t, filepath.Join(root, "a.pdf"), "invoice")
	testsupport.WriteFileContent(t, filepath.Join(root, "old", "notes.txt"), "notes")

	before := testsupport.SnapshotTree(t, root)

	ops := []plan.Operation{
		plan.NewFolderMove(filepath.Join(root, "old"), filepath.Join(root, "Archives", "old")),
		plan.NewFileMove(filepath.Join(root, "a.pdf"), filepath.Join(root, "PDFs", "a.pdf")),
	}
	for i := range ops {
		ops[i].Status = plan.StatusApproved
	}
	result, err := exec.Execute(context.Background(), ops, false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	log, err := txlog.Load(result.LogPath)
	if err != nil {
		t.Fatalf("load log: %v", err)
	}
	rolled, err := exec.Rollback(context.Background(), log, false)
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if rolled.Errors != 0 {
		t.Errorf("rollback errors: %d", rolled.Errors)
	}

	// Empty directories left behind by the moves are not part of the snapshot,
	// so a clean round trip compares equal file for file.
	after := testsupport.SnapshotTree(t, root)
	testsupport.AssertTreesEqual(t, before, after)
}

func TestRollbackReversesInReverseOrder(t *testing.T) {
	exec, _ := newTestExecutor(t)
	root := t.TempDir()

	// The folder moves first, then a file moves into the moved folder. Reverse
	// order is the only order in which both reversals can succeed.
	testsupport.WriteFileContent(t, filepath.Join(root, "box", "keep.txt"), "keep")
	testsupport.WriteFileContent(t, filepath.Join(root, "stray.txt"), "stray")

	ops := []plan.Operation{
		plan.NewFolderMove(filepath.Join(root, "box"), filepath.Join(root, "Boxes", "box")),
		plan.NewFileMove(filepath.Join(root, "stray.txt"), filepath.Join(root, "Boxes", "box", "stray.txt")),
	}
	for i := range ops {
		ops[i].Status = plan.StatusApproved
	}
	result, err := exec.Execute(context.Background(), ops, false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	log, err := txlog.Load(result.LogPath)
	if err != nil {
		t.Fatalf("load log: %v", err)
	}
	rolled, err := exec.Rollback(context.Background(), log, false)
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if rolled.Errors != 0 {
		t.Fatalf("rollback errors: %d, operations: %+v", rolled.Errors, rolled.Operations)
	}
	if _, err := os.Stat(filepath.Join(root, "stray.txt")); err != nil {
		t.Errorf("stray.txt not restored: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "box", "keep.txt")); err != nil {
		t.Errorf("box not restored: %v", err)
	}
}

func TestRollbackSkipsMissingDestination(t *testing.T) {
	exec, _ := newTestExecutor(t)
	root := t.TempDir()

	testsupport.WriteFileContent(t, filepath.Join(root, "a.txt"), "a")
	testsupport.WriteFileContent(t, filepath.Join(root, "b.txt"), "b")

	ops := []plan.Operation{
		plan.NewFileMove(filepath.Join(root, "a.txt"), filepath.Join(root, "Documents", "a.txt")),
		plan.NewFileMove(filepath.Join(root, "b.txt"), filepath.Join(root, "Documents", "b.txt")),
	}
	for i := range ops {
		ops[i].Status = plan.StatusApproved
	}
	result, err := exec.Execute(context.Background(), ops, false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	// A third party removes one moved file before the rollback runs.
	if err := os.Remove(filepath.Join(root, "Documents", "b.txt")); err != nil {
		t.Fatal(err)
	}

	log, err := txlog.Load(result.LogPath)
	if err != nil {
		t.Fatalf("load log: %v", err)
	}
	rolled, err := exec.Rollback(context.Background(), log, false)
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if rolled.Errors != 1 {
		t.Errorf("rollback errors: got %d, want 1", rolled.Errors)
	}
	if _, err := os.Stat(filepath.Join(root, "a.txt")); err != nil {
		t.Errorf("a.txt should be restored despite the missing sibling: %v", err)
	}

	var sawMissing bool
	for _, op := range rolled.Operations {
		if op.Status == plan.StatusFailed && op.Error != "" {
			sawMissing = true
		}
	}
	if !sawMissing {
		t.Error("missing destination not recorded against its entry")
	}
}

func TestRollbackDryRunTouchesNothing(t *testing.T) {
	exec, _ := newTestExecutor(t)
	root := t.TempDir()

	testsupport.WriteFileContent(t, filepath.Join(root, "a.txt"), "a")
	op := plan.NewFileMove(filepath.Join(root, "a.txt"), filepath.Join(root, "Documents", "a.txt"))
	op.Status = plan.StatusApproved
	result, err := exec.Execute(context.Background(), []plan.Operation{op}, false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	before := testsupport.SnapshotTree(t, root)

	log, err := txlog.Load(result.LogPath)
	if err != nil {
		t.Fatalf("load log: %v", err)
	}
	rolled, err := exec.Rollback(context.Background(), log, true)
	if err != nil {
		t.Fatalf("Rollback dry run: %v", err)
	}
	if !rolled.DryRun || rolled.FileMoves != 1 {
		t.Errorf("dry run result: %+v", rolled)
	}

	after := testsupport.SnapshotTree(t, root)
	testsupport.AssertTreesEqual(t, before, after)
}

func TestRollbackRecreatesMissingOriginalParent(t *testing.T) {
	exec, _ := newTestExecutor(t)
	root := t.TempDir()

	testsupport.WriteFileContent(t, filepath.Join(root, "deep", "nest", "f.txt"), "f")
	op := plan.NewFileMove(filepath.Join(root, "deep", "nest", "f.txt"), filepath.Join(root, "flat", "f.txt"))
	op.Status = plan.StatusApproved
	result, err := exec.Execute(context.Background(), []plan.Operation{op}, false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	// The now-empty original parents disappear before the rollback.
	if err := os.RemoveAll(filepath.Join(root, "deep")); err != nil {
		t.Fatal(err)
	}

	log, err := txlog.Load(result.LogPath)
	if err != nil {
		t.Fatalf("load log: %v", err)
	}
	rolled, err := exec.Rollback(context.Background(), log, false)
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if rolled.Errors != 0 {
		t.Fatalf("rollback errors: %d", rolled.Errors)
	}
	if _, err := os.Stat(filepath.Join(root, "deep", "nest", "f.txt")); err != nil {
		t.Errorf("original parent not recreated: %v", err)
	}
}
