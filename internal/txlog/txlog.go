package txlog

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"curator/internal/plan"
)

const (
	filePrefix = "txlog-"
	fileSuffix = ".json"
)

// Entry records one operation that was actually applied, in application order.
type Entry struct {
	Operation plan.Operation `json:"operation"`
	AppliedAt time.Time      `json:"applied_at"`
	Status    plan.Status    `json:"status"`
}

// Summary aggregates one execution run for the audit record.
type Summary struct {
	Total       int `json:"total"`
	FileMoves   int `json:"file_moves"`
	FolderMoves int `json:"folder_moves"`
	Errors      int `json:"errors"`
}

// Log is the durable record of one execution run. It is self-sufficient: the
// rollback engine needs nothing beyond this document to reverse the run.
type Log struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Entries   []Entry   `json:"entries"`
	Summary   Summary   `json:"summary"`
}

// NewID returns a sortable, timestamp-derived run identifier.
func NewID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now.UTC()), rand.Reader).String()
}

// FilePath returns the on-disk location for the log with the given id.
func FilePath(dir, id string) string {
	return filepath.Join(dir, filePrefix+id+fileSuffix)
}

// IDFromPath extracts the run id embedded in a log filename, or "".
func IDFromPath(path string) string {
	base := filepath.Base(path)
	if !strings.HasPrefix(base, filePrefix) || !strings.HasSuffix(base, fileSuffix) {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(base, filePrefix), fileSuffix)
}

// Load reads a transaction log from disk. It accepts both the finalized
// document and the bare entry journal a crashed run leaves behind, so a log is
// always consumable no matter where the writer stopped.
func Load(path string) (*Log, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transaction log %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("transaction log %s is empty", path)
	}

	var log Log
	if err := json.Unmarshal(data, &log); err == nil && log.ID != "" {
		return &log, nil
	}

	entries, err := decodeJournal(data)
	if err != nil {
		return nil, fmt.Errorf("parse transaction log %s: %w", path, err)
	}
	log = Log{
		ID:      IDFromPath(path),
		Entries: entries,
		Summary: summarize(entries, 0),
	}
	if len(entries) > 0 {
		log.CreatedAt = entries[0].AppliedAt
	}
	return &log, nil
}

// Latest returns the path of the most recent transaction log in dir, relying
// on the lexicographic order of ULID-derived filenames. An empty string with
// no error means dir holds no logs.
func Latest(dir string) (string, error) {
	names, err := List(dir)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", nil
	}
	return names[len(names)-1], nil
}

// List returns all transaction log paths in dir, oldest first.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read transaction log dir %s: %w", dir, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if IDFromPath(entry.Name()) == "" {
			continue
		}
		names = append(names, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(names)
	return names, nil
}

func decodeJournal(data []byte) ([]Entry, error) {
	decoder := json.NewDecoder(strings.NewReader(string(data)))
	var entries []Entry
	for {
		var entry Entry
		if err := decoder.Decode(&entry); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return nil, errors.New("no entries")
	}
	return entries, nil
}

func summarize(entries []Entry, errorCount int) Summary {
	summary := Summary{Total: len(entries) + errorCount, Errors: errorCount}
	for _, entry := range entries {
		switch entry.Operation.Kind {
		case plan.KindFolderMove:
			summary.FolderMoves++
		default:
			summary.FileMoves++
		}
	}
	return summary
}
