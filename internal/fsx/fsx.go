// Package fsx holds the filesystem move helpers for the post-action:
// relocating a fully split source into its archive directory.
package fsx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Swappable for tests that need to simulate EXDEV.
var renameFunc = os.Rename

// ArchiveDir returns the archive directory for sources in sourceDir: a
// sibling named after the directory itself, e.g. /media/camera ->
// "/media/camera source".
func ArchiveDir(sourceDir string) string {
	parent := filepath.Dir(sourceDir)
	return filepath.Join(parent, filepath.Base(sourceDir)+" source")
}

// MoveInto moves path into destDir, creating destDir if needed and
// deduplicating by appending a numeric suffix on name collision. A move to
// the path's current location is a silent no-op. Cross-device renames fall
// back to copy-then-remove. Returns the final destination path.
func MoveInto(path, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}

	dst := dedupPath(destDir, filepath.Base(path))
	if dst == path {
		return dst, nil
	}
	if err := move(path, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// dedupPath picks the first free name in destDir: name.ext, then
// name_1.ext, name_2.ext, and so on.
func dedupPath(destDir, name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := filepath.Join(destDir, name)
	for n := 1; ; n++ {
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = filepath.Join(destDir, fmt.Sprintf("%s_%d%s", stem, n, ext))
	}
}

func move(src, dst string) error {
	err := renameFunc(src, dst)
	if err == nil {
		return nil
	}
	if !isEXDEV(err) {
		return fmt.Errorf("move %s: %w", src, err)
	}
	if err := copyFile(src, dst); err != nil {
		os.Remove(dst)
		return fmt.Errorf("cross-device move %s: %w", src, err)
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
