package medium

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDirLocator(t *testing.T) {
	dir := t.TempDir()

	h, err := DirLocator{Dir: dir}.Locate()
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if h.Root != dir {
		t.Errorf("Root = %s, want %s", h.Root, dir)
	}

	if MetadataPresent(h, "meta") {
		t.Error("metadata should not be present yet")
	}
	if err := os.WriteFile(h.Path("meta"), []byte("x"), 0600); err != nil {
		t.Fatalf("Failed to write metadata: %v", err)
	}
	if !MetadataPresent(h, "meta") {
		t.Error("metadata should be present")
	}

	if _, err := (DirLocator{Dir: filepath.Join(dir, "nope")}).Locate(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := (DirLocator{}).Locate(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for empty dir, got %v", err)
	}
}

func TestLabelLocator(t *testing.T) {
	root := t.TempDir()
	byLabel := filepath.Join(root, "by-label")
	devDir := filepath.Join(root, "dev")
	for _, d := range []string{byLabel, devDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatalf("MkdirAll failed: %v", err)
		}
	}

	device := filepath.Join(devDir, "sdz1")
	if err := os.WriteFile(device, nil, 0600); err != nil {
		t.Fatalf("Failed to create device: %v", err)
	}
	if err := os.Symlink(device, filepath.Join(byLabel, "VAULTKEY")); err != nil {
		t.Fatalf("Symlink failed: %v", err)
	}

	mounts := filepath.Join(root, "mounts")
	table := "proc /proc proc rw 0 0\n" +
		device + " /media/user/VAULT\\040KEY vfat rw 0 0\n"
	if err := os.WriteFile(mounts, []byte(table), 0600); err != nil {
		t.Fatalf("Failed to write mounts: %v", err)
	}

	l := &LabelLocator{Label: "VAULTKEY", ByLabelDir: byLabel, MountsFile: mounts}
	h, err := l.Locate()
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if h.Root != "/media/user/VAULT KEY" {
		t.Errorf("Root = %q, want %q", h.Root, "/media/user/VAULT KEY")
	}
	if h.Label != "VAULTKEY" {
		t.Errorf("Label = %q", h.Label)
	}

	missing := &LabelLocator{Label: "OTHER", ByLabelDir: byLabel, MountsFile: mounts}
	if _, err := missing.Locate(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown label, got %v", err)
	}

	if err := os.WriteFile(mounts, []byte("proc /proc proc rw 0 0\n"), 0600); err != nil {
		t.Fatalf("Failed to rewrite mounts: %v", err)
	}
	if _, err := l.Locate(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unmounted label, got %v", err)
	}
}

func TestUnescapeMountField(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/plain", "/plain"},
		{`/a\040b`, "/a b"},
		{`/tab\011x`, "/tab\tx"},
		{`/back\134slash`, `/back\slash`},
		{`/trailing\04`, `/trailing\04`},
	}
	for _, tt := range tests {
		if got := unescapeMountField(tt.in); got != tt.want {
			t.Errorf("unescapeMountField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
