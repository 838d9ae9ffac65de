package testsupport

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// SnapshotTree captures the relative paths and content hashes of every file
// under root. Two snapshots compare equal when the trees hold the same files
// with the same bytes, which is how the round-trip tests assert that executing
// a plan and rolling it back restores the original state.
func SnapshotTree(t testing.TB, root string) map[string]string {
	t.Helper()

	snapshot := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		sum := sha256.Sum256(data)
		snapshot[rel] = hex.EncodeToString(sum[:])
		return nil
	})
	if err != nil {
		t.Fatalf("snapshot %s: %v", root, err)
	}
	return snapshot
}

// AssertTreesEqual fails the test when the two snapshots differ, reporting
// which paths were added, removed, or changed.
func AssertTreesEqual(t testing.TB, want, got map[string]string) {
	t.Helper()

	keys := make(map[string]struct{}, len(want)+len(got))
	for k := range want {
		keys[k] = struct{}{}
	}
	for k := range got {
		keys[k] = struct{}{}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	for _, key := range sorted {
		wantHash, inWant := want[key]
		gotHash, inGot := got[key]
		switch {
		case !inWant:
			t.Errorf("unexpected file %s", key)
		case !inGot:
			t.Errorf("missing file %s", key)
		case wantHash != gotHash:
			t.Errorf("content changed for %s", key)
		}
	}
}
