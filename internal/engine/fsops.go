package engine

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
)

// move relocates source to destination, creating the destination's parent
// directories on demand. Renames that cross a filesystem boundary fall back to
// copy-and-remove. Timestamps survive either path when preserveTimes is set.
// The destination must not exist: collisions were resolved against the tree
// the planner saw, so anything that appeared there since is not ours to
// replace.
func move(source, destination string, preserveTimes bool) error {
	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if _, err := os.Lstat(destination); err == nil {
		return fmt.Errorf("destination already exists: %s", destination)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat destination: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return fmt.Errorf("create destination parent: %w", err)
	}

	renameErr := os.Rename(source, destination)
	if renameErr == nil {
		return nil
	}

	var linkErr *os.LinkError
	if !errors.As(renameErr, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return renameErr
	}

	// Cross-device move: copy then remove the original.
	if info.IsDir() {
		if err := copyTree(source, destination, preserveTimes); err != nil {
			return fmt.Errorf("copy folder across filesystems: %w", err)
		}
	} else {
		if err := copyFile(source, destination); err != nil {
			return fmt.Errorf("copy file across filesystems: %w", err)
		}
		if preserveTimes {
			_ = os.Chtimes(destination, info.ModTime(), info.ModTime())
		}
	}
	if err := os.RemoveAll(source); err != nil {
		return fmt.Errorf("remove source after copy: %w", err)
	}
	return nil
}

// copyFile copies a file from src to dst, verifying both size and content
// hash so a silently truncated or corrupted copy never replaces a move.
func copyFile(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	srcSize := srcInfo.Size()

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	tee := io.TeeReader(in, srcHasher)
	multi := io.MultiWriter(out, dstHasher)

	written, err := io.Copy(multi, tee)
	if err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if written != srcSize {
		_ = os.Remove(dst)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcSize, written)
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		_ = os.Remove(dst)
		return fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}
	return nil
}

func copyTree(src, dst string, preserveTimes bool) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if err := copyFile(path, target); err != nil {
			return err
		}
		if preserveTimes {
			if info, statErr := d.Info(); statErr == nil {
				_ = os.Chtimes(target, info.ModTime(), info.ModTime())
			}
		}
		return nil
	})
}
