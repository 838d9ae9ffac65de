package suggestcache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Fingerprint modes. Stat hashes path, size, and mtime and is cheap enough for
// every run; content hashes the file body and survives renames and touch.
const (
	ModeStat    = "stat"
	ModeContent = "content"
)

// Fingerprint derives the cache key for path using the given mode. A file
// whose fingerprint is unchanged gets its cached suggestion back without a
// classifier call.
func Fingerprint(path, mode string) (string, error) {
	switch mode {
	case ModeContent:
		return contentFingerprint(path)
	case ModeStat, "":
		return statFingerprint(path)
	default:
		return "", fmt.Errorf("unknown fingerprint mode %q", mode)
	}
}

func statFingerprint(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	h := sha256.New()
	io.WriteString(h, path)
	io.WriteString(h, "\x00")
	io.WriteString(h, strconv.FormatInt(info.Size(), 10))
	io.WriteString(h, "\x00")
	io.WriteString(h, strconv.FormatInt(info.ModTime().UnixNano(), 10))
	return hex.EncodeToString(h.Sum(nil)), nil
}

func contentFingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
