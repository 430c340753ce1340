package fsx

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
)

func TestArchiveDir(t *testing.T) {
	got := ArchiveDir("/media/camera")
	want := filepath.Join("/media", "camera source")
	if got != want {
		t.Errorf("ArchiveDir = %q, want %q", got, want)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestMoveInto(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "clip.mkv")
	writeFile(t, src, "data")

	dest := filepath.Join(dir, "archive")
	got, err := MoveInto(src, dest)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dest, "clip.mkv"); got != want {
		t.Errorf("moved to %q, want %q", got, want)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source still present after move")
	}
}

func TestMoveInto_Dedup(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "archive")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dest, "clip.mkv"), "old")
	writeFile(t, filepath.Join(dest, "clip_1.mkv"), "older")

	src := filepath.Join(dir, "clip.mkv")
	writeFile(t, src, "new")

	got, err := MoveInto(src, dest)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dest, "clip_2.mkv"); got != want {
		t.Errorf("moved to %q, want %q", got, want)
	}
	data, err := os.ReadFile(got)
	if err != nil || string(data) != "new" {
		t.Errorf("dedup destination content = %q, %v", data, err)
	}
}

func TestMoveInto_CrossDeviceFallback(t *testing.T) {
	orig := renameFunc
	renameFunc = func(src, dst string) error {
		return &os.LinkError{Op: "rename", Old: src, New: dst, Err: syscall.EXDEV}
	}
	defer func() { renameFunc = orig }()

	dir := t.TempDir()
	src := filepath.Join(dir, "clip.mkv")
	writeFile(t, src, "payload")

	dest := filepath.Join(dir, "archive")
	got, err := MoveInto(src, dest)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(got)
	if err != nil || string(data) != "payload" {
		t.Errorf("copied content = %q, %v", data, err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source still present after cross-device move")
	}
}

func TestMove_NonEXDEVErrorPropagates(t *testing.T) {
	orig := renameFunc
	sentinel := errors.New("disk on fire")
	renameFunc = func(src, dst string) error { return sentinel }
	defer func() { renameFunc = orig }()

	dir := t.TempDir()
	src := filepath.Join(dir, "clip.mkv")
	writeFile(t, src, "x")

	if _, err := MoveInto(src, filepath.Join(dir, "archive")); !errors.Is(err, sentinel) {
		t.Errorf("err = %v, want wrapped sentinel", err)
	}
}
