package txlog

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"curator/internal/plan"
)

// Writer appends applied operations to a durable journal as they happen.
//
// Each entry is encoded and synced to disk before Append returns, so a crash
// mid-batch leaves a journal that under-reports completed work rather than
// over-reporting it. Finalize rewrites the journal as the documented JSON form
// with a summary, via an atomic temp-file rename.
type Writer struct {
	mu        sync.Mutex
	path      string
	id        string
	createdAt time.Time
	file      *os.File
	enc       *json.Encoder
	entries   []Entry
}

// NewWriter opens a journal for a new execution run in dir.
func NewWriter(dir string, now time.Time) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create transaction log dir: %w", err)
	}
	id := NewID(now)
	path := FilePath(dir, id)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create transaction log %s: %w", path, err)
	}
	return &Writer{
		path:      path,
		id:        id,
		createdAt: now.UTC(),
		file:      file,
		enc:       json.NewEncoder(file),
	}, nil
}

// ID returns the run identifier for this log.
func (w *Writer) ID() string {
	return w.id
}

// Path returns the on-disk location backing the journal.
func (w *Writer) Path() string {
	return w.path
}

// Append records one applied operation. The entry is on disk when Append
// returns; the caller must not report the operation as complete before that.
func (w *Writer) Append(op plan.Operation, appliedAt time.Time) (Entry, error) {
	entry := Entry{
		Operation: op,
		AppliedAt: appliedAt.UTC(),
		Status:    plan.StatusApplied,
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return Entry{}, fmt.Errorf("transaction log %s already finalized", w.path)
	}
	if err := w.enc.Encode(entry); err != nil {
		return Entry{}, fmt.Errorf("append transaction log entry: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return Entry{}, fmt.Errorf("sync transaction log: %w", err)
	}
	w.entries = append(w.entries, entry)
	return entry, nil
}

// Len returns the number of entries appended so far.
func (w *Writer) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}

// Finalize closes the journal and rewrites it as the full log document with
// the run summary. errorCount is the number of operations that failed and were
// therefore never journaled.
func (w *Writer) Finalize(errorCount int) (*Log, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil, fmt.Errorf("transaction log %s already finalized", w.path)
	}
	if err := w.file.Close(); err != nil {
		return nil, fmt.Errorf("close transaction log journal: %w", err)
	}
	w.file = nil
	w.enc = nil

	log := &Log{
		ID:        w.id,
		CreatedAt: w.createdAt,
		Entries:   w.entries,
		Summary:   summarize(w.entries, errorCount),
	}

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal transaction log: %w", err)
	}

	tmpPath := w.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("write transaction log: %w", err)
	}
	if err := os.Rename(tmpPath, w.path); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("replace transaction log: %w", err)
	}
	return log, nil
}

// Discard closes and removes an empty journal. It refuses to remove a journal
// that holds entries; those must be finalized so the run stays auditable.
func (w *Writer) Discard() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	if len(w.entries) > 0 {
		return fmt.Errorf("transaction log %s has %d entries, refusing to discard", w.path, len(w.entries))
	}
	if err := w.file.Close(); err != nil {
		return err
	}
	w.file = nil
	w.enc = nil
	return os.Remove(w.path)
}
