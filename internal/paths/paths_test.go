package paths

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestNormalize(t *testing.T) {
	got, err := Normalize("/a/b/../c/./x.pdf")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := filepath.FromSlash("/a/c/x.pdf")
	if got != want {
		t.Errorf("Normalize: got %q, want %q", got, want)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	if _, err := Normalize("   "); err == nil {
		t.Error("Normalize should reject empty input")
	}
}

func TestResolveWithinRoot(t *testing.T) {
	root := t.TempDir()

	resolved, err := ResolveWithinRoot(root, filepath.Join(root, "sub", "x.pdf"))
	if err != nil {
		t.Fatalf("ResolveWithinRoot: %v", err)
	}
	if resolved != filepath.Join(root, "sub", "x.pdf") {
		t.Errorf("resolved: got %q", resolved)
	}

	if _, err := ResolveWithinRoot(root, filepath.Join(root, "..", "outside.pdf")); !errors.Is(err, ErrOutsideRoot) {
		t.Errorf("escape should yield ErrOutsideRoot, got %v", err)
	}

	// The root itself resolves cleanly.
	if _, err := ResolveWithinRoot(root, root); err != nil {
		t.Errorf("root should resolve to itself: %v", err)
	}
}

func TestIsDescendant(t *testing.T) {
	cases := []struct {
		parent, child string
		want          bool
	}{
		{"/a", "/a/b", true},
		{"/a", "/a/b/c", true},
		{"/a", "/a", false},
		{"/a", "/ab", false},
		{"/a/b", "/a", false},
		{"/a", "/b/a", false},
	}
	for _, tc := range cases {
		parent := filepath.FromSlash(tc.parent)
		child := filepath.FromSlash(tc.child)
		if got := IsDescendant(parent, child); got != tc.want {
			t.Errorf("IsDescendant(%q, %q): got %v, want %v", parent, child, got, tc.want)
		}
	}
}

func TestDepth(t *testing.T) {
	if Depth(filepath.FromSlash("/a/b/c")) <= Depth(filepath.FromSlash("/a/b")) {
		t.Error("deeper path should report greater depth")
	}
}
