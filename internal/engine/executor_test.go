package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"curator/internal/logging"
	"curator/internal/plan"
	"curator/internal/testsupport"
	"curator/internal/txlog"
)

func newTestExecutor(t *testing.T) (*Executor, string) {
	t.Helper()
	logDir := t.TempDir()
	return New(logging.NewNop(), logDir, filepath.Join(logDir, "test.lock")), logDir
}

func TestExecuteMovesFilesAndWritesLog(t *testing.T) {
	exec, logDir := newTestExecutor(t)
	root := t.TempDir()

	testsupport.WriteFile(t, filepath.Join(root, "a.pdf"), 64)
	testsupport.WriteFile(t, filepath.Join(root, "b.txt"), 32)

	ops := []plan.Operation{
		plan.NewFileMove(filepath.Join(root, "a.pdf"), filepath.Join(root, "PDFs", "a.pdf")),
		plan.NewFileMove(filepath.Join(root, "b.txt"), filepath.Join(root, "Documents", "b.txt")),
	}
	for i := range ops {
		ops[i].Status = plan.StatusApproved
	}

	result, err := exec.Execute(context.Background(), ops, false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.FileMoves != 2 || result.Errors != 0 {
		t.Errorf("result: got files=%d errors=%d", result.FileMoves, result.Errors)
	}
	if _, err := os.Stat(filepath.Join(root, "PDFs", "a.pdf")); err != nil {
		t.Errorf("a.pdf not moved: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "a.pdf")); !os.IsNotExist(err) {
		t.Error("a.pdf still at source")
	}

	log, err := txlog.Load(result.LogPath)
	if err != nil {
		t.Fatalf("load log: %v", err)
	}
	if len(log.Entries) != 2 {
		t.Fatalf("log entries: got %d, want 2", len(log.Entries))
	}
	if log.Summary.Total != 2 || log.Summary.Errors != 0 {
		t.Errorf("log summary: %+v", log.Summary)
	}
	if filepath.Dir(result.LogPath) != logDir {
		t.Errorf("log written outside log dir: %s", result.LogPath)
	}
}

func TestExecuteDryRunTouchesNothing(t *testing.T) {
	exec, logDir := newTestExecutor(t)
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "a.pdf"), 64)

	before := testsupport.SnapshotTree(t, root)

	op := plan.NewFileMove(filepath.Join(root, "a.pdf"), filepath.Join(root, "PDFs", "a.pdf"))
	op.Status = plan.StatusApproved
	result, err := exec.Execute(context.Background(), []plan.Operation{op}, true)
	if err != nil {
		t.Fatalf("Execute dry run: %v", err)
	}
	if !result.DryRun || result.FileMoves != 1 {
		t.Errorf("dry run result: %+v", result)
	}
	if result.LogPath != "" {
		t.Errorf("dry run should not create a log, got %s", result.LogPath)
	}

	after := testsupport.SnapshotTree(t, root)
	testsupport.AssertTreesEqual(t, before, after)

	logs, err := txlog.List(logDir)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(logs) != 0 {
		t.Errorf("dry run wrote %d logs", len(logs))
	}
}

func TestExecuteContinuesPastFailedOperation(t *testing.T) {
	exec, _ := newTestExecutor(t)
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "real.txt"), 16)

	missing := plan.NewFileMove(filepath.Join(root, "ghost.txt"), filepath.Join(root, "Documents", "ghost.txt"))
	present := plan.NewFileMove(filepath.Join(root, "real.txt"), filepath.Join(root, "Documents", "real.txt"))
	missing.Status = plan.StatusApproved
	present.Status = plan.StatusApproved

	result, err := exec.Execute(context.Background(), []plan.Operation{missing, present}, false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Errors != 1 || result.FileMoves != 1 {
		t.Errorf("result: got errors=%d files=%d", result.Errors, result.FileMoves)
	}
	if _, err := os.Stat(filepath.Join(root, "Documents", "real.txt")); err != nil {
		t.Errorf("later operation should still apply: %v", err)
	}

	log, err := txlog.Load(result.LogPath)
	if err != nil {
		t.Fatalf("load log: %v", err)
	}
	if len(log.Entries) != 1 {
		t.Errorf("failed operation must not be journaled, got %d entries", len(log.Entries))
	}
	if log.Summary.Errors != 1 || log.Summary.Total != 2 {
		t.Errorf("log summary: %+v", log.Summary)
	}
}

func TestExecuteRefusesToReplaceExistingDestination(t *testing.T) {
	exec, _ := newTestExecutor(t)
	root := t.TempDir()
	testsupport.WriteFileContent(t, filepath.Join(root, "a.txt"), "new content")

	op := plan.NewFileMove(filepath.Join(root, "a.txt"), filepath.Join(root, "Docs", "a.txt"))
	op.Status = plan.StatusApproved

	// Another writer claims the destination between planning and execution.
	testsupport.WriteFileContent(t, filepath.Join(root, "Docs", "a.txt"), "precious existing data")

	result, err := exec.Execute(context.Background(), []plan.Operation{op}, false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Errors != 1 || result.FileMoves != 0 {
		t.Errorf("result: got errors=%d files=%d", result.Errors, result.FileMoves)
	}
	if result.Operations[0].Status != plan.StatusFailed {
		t.Errorf("operation status: %s", result.Operations[0].Status)
	}

	data, err := os.ReadFile(filepath.Join(root, "Docs", "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "precious existing data" {
		t.Errorf("existing destination was overwritten: %q", data)
	}
	if _, err := os.Stat(filepath.Join(root, "a.txt")); err != nil {
		t.Errorf("source should be untouched after the refused move: %v", err)
	}

	log, err := txlog.Load(result.LogPath)
	if err != nil {
		t.Fatalf("load log: %v", err)
	}
	if len(log.Entries) != 0 {
		t.Errorf("refused move must not be journaled, got %d entries", len(log.Entries))
	}
}

func TestExecuteFolderMove(t *testing.T) {
	exec, _ := newTestExecutor(t)
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "old", "nested", "file.txt"), 16)

	op := plan.NewFolderMove(filepath.Join(root, "old"), filepath.Join(root, "Archives", "old"))
	op.Status = plan.StatusApproved

	result, err := exec.Execute(context.Background(), []plan.Operation{op}, false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.FolderMoves != 1 {
		t.Errorf("folder moves: got %d", result.FolderMoves)
	}
	if _, err := os.Stat(filepath.Join(root, "Archives", "old", "nested", "file.txt")); err != nil {
		t.Errorf("folder contents not moved: %v", err)
	}
}

func TestExecuteRefusesConcurrentRun(t *testing.T) {
	exec, logDir := newTestExecutor(t)

	lock, err := exec.acquireLock()
	if err != nil {
		t.Fatalf("acquire lock: %v", err)
	}
	defer exec.releaseLock(lock)

	other := New(logging.NewNop(), logDir, exec.lockPath)
	if _, err := other.Execute(context.Background(), nil, false); err == nil {
		t.Error("second run should fail while the lock is held")
	}
}

func TestExecuteEmptyPlanStillFinalizesLog(t *testing.T) {
	exec, _ := newTestExecutor(t)

	result, err := exec.Execute(context.Background(), nil, false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	log, err := txlog.Load(result.LogPath)
	if err != nil {
		t.Fatalf("load log: %v", err)
	}
	if log.Summary.Total != 0 {
		t.Errorf("empty run summary: %+v", log.Summary)
	}
}
