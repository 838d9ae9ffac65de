package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrOutsideRoot reports a path that escapes the organization root.
var ErrOutsideRoot = errors.New("path escapes root")

// Normalize returns the cleaned, absolute, NFC-normalized form of path.
// macOS volumes store names in a decomposed form, so comparing paths from
// different sources without normalization produces spurious mismatches.
func Normalize(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("path is empty")
	}
	absolute, err := filepath.Abs(filepath.Clean(trimmed))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", trimmed, err)
	}
	return norm.NFC.String(absolute), nil
}

// ResolveWithinRoot normalizes path and verifies it does not escape root.
// Both arguments are normalized before comparison; the root itself is a valid
// resolution target.
func ResolveWithinRoot(root, path string) (string, error) {
	normalizedRoot, err := Normalize(root)
	if err != nil {
		return "", fmt.Errorf("root: %w", err)
	}
	resolved, err := Normalize(path)
	if err != nil {
		return "", err
	}
	if resolved != normalizedRoot && !IsDescendant(normalizedRoot, resolved) {
		return "", fmt.Errorf("%w: %s is not under %s", ErrOutsideRoot, resolved, normalizedRoot)
	}
	return resolved, nil
}

// IsDescendant reports whether child is a strict descendant of parent. Both
// paths must already be absolute and cleaned; Equal's case rules apply.
func IsDescendant(parent, child string) bool {
	parent = filepath.Clean(parent)
	child = filepath.Clean(child)
	if Equal(parent, child) {
		return false
	}
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Equal compares two normalized paths, folding case on filesystems that are
// conventionally case-insensitive.
func Equal(a, b string) bool {
	a = norm.NFC.String(a)
	b = norm.NFC.String(b)
	if caseInsensitiveFS() {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// Exists reports whether the path exists, and whether it is a directory.
func Exists(path string) (exists bool, isDir bool) {
	info, err := os.Stat(path)
	if err != nil {
		return false, false
	}
	return true, info.IsDir()
}

// Depth returns the number of separators in the cleaned path. Shallower
// destinations sort before deeper ones when ordering folder moves.
func Depth(path string) int {
	cleaned := filepath.Clean(path)
	if cleaned == string(filepath.Separator) {
		return 0
	}
	return strings.Count(cleaned, string(filepath.Separator))
}

// CaseSensitive reports whether path comparison on this platform is case
// sensitive.
func CaseSensitive() bool {
	return !caseInsensitiveFS()
}

// Fold lowercases a path for use as a map key on case-insensitive filesystems.
func Fold(path string) string {
	return strings.ToLower(norm.NFC.String(path))
}

func caseInsensitiveFS() bool {
	switch runtime.GOOS {
	case "darwin", "windows":
		return true
	default:
		return false
	}
}
