package core

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestStatTimes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	atime := time.Date(2023, 5, 6, 7, 8, 9, 0, time.UTC)
	mtime := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := os.Chtimes(path, atime, mtime); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	created, accessed := statTimes(info)
	if !accessed.Equal(atime) {
		t.Errorf("accessed = %v, want %v", accessed, atime)
	}
	if accessed.Equal(info.ModTime()) {
		t.Error("access time should not collapse to mtime")
	}
	if created.IsZero() {
		t.Error("created time should be set")
	}
}

func TestOwnerOf(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	uid, gid := ownerOf(path)
	if runtime.GOOS == "windows" {
		if uid != -1 || gid != -1 {
			t.Errorf("owner = %d:%d, want -1:-1", uid, gid)
		}
		return
	}
	if uid != os.Getuid() || gid != os.Getgid() {
		t.Errorf("owner = %d:%d, want %d:%d", uid, gid, os.Getuid(), os.Getgid())
	}

	if uid, gid := ownerOf(filepath.Join(t.TempDir(), "missing")); uid != -1 || gid != -1 {
		t.Errorf("missing file owner = %d:%d, want -1:-1", uid, gid)
	}
}
