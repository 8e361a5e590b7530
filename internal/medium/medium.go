package medium

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultLabel is the volume label of the key medium
const DefaultLabel = "VAULTKEY"

const (
	defaultByLabelDir = "/dev/disk/by-label"
	defaultMountsFile = "/proc/self/mounts"
)

var ErrNotFound = errors.New("removable medium not found")

// Handle identifies a located medium
type Handle struct {
	Root  string // Mount point or directory holding the metadata artifact
	Label string
}

// Path joins name onto the medium root
func (h Handle) Path(name string) string {
	return filepath.Join(h.Root, name)
}

// Locator finds the medium that carries the metadata artifact
type Locator interface {
	Locate() (Handle, error)
}

// MetadataPresent reports whether the named artifact exists on the medium
func MetadataPresent(h Handle, name string) bool {
	info, err := os.Stat(h.Path(name))
	return err == nil && !info.IsDir()
}

// DirLocator treats a fixed directory as the medium
type DirLocator struct {
	Dir string
}

// Locate returns the directory if it exists
func (d DirLocator) Locate() (Handle, error) {
	if d.Dir == "" {
		return Handle{}, ErrNotFound
	}
	info, err := os.Stat(d.Dir)
	if err != nil || !info.IsDir() {
		return Handle{}, fmt.Errorf("%w: %s", ErrNotFound, d.Dir)
	}
	return Handle{Root: d.Dir, Label: filepath.Base(d.Dir)}, nil
}

// LabelLocator finds a mounted volume by its filesystem label.
// It resolves the label through udev's by-label links and looks the
// device up in the mount table, so it only finds media on Linux.
type LabelLocator struct {
	Label      string
	ByLabelDir string // defaults to /dev/disk/by-label
	MountsFile string // defaults to /proc/self/mounts
}

// NewLabelLocator creates a locator for the given volume label
func NewLabelLocator(label string) *LabelLocator {
	if label == "" {
		label = DefaultLabel
	}
	return &LabelLocator{
		Label:      label,
		ByLabelDir: defaultByLabelDir,
		MountsFile: defaultMountsFile,
	}
}

// Locate returns the mount point of the labeled volume
func (l *LabelLocator) Locate() (Handle, error) {
	device, err := filepath.EvalSymlinks(filepath.Join(l.ByLabelDir, l.Label))
	if err != nil {
		return Handle{}, fmt.Errorf("%w: label %s", ErrNotFound, l.Label)
	}

	f, err := os.Open(l.MountsFile)
	if err != nil {
		return Handle{}, fmt.Errorf("%w: cannot read mount table: %v", ErrNotFound, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		source := unescapeMountField(fields[0])
		if resolved, err := filepath.EvalSymlinks(source); err == nil {
			source = resolved
		}
		if source == device {
			return Handle{Root: unescapeMountField(fields[1]), Label: l.Label}, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return Handle{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	return Handle{}, fmt.Errorf("%w: label %s is not mounted", ErrNotFound, l.Label)
}

// unescapeMountField decodes the \ooo octal escapes used in the mount table
func unescapeMountField(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) && isOctal(s[i+1]) && isOctal(s[i+2]) && isOctal(s[i+3]) {
			b.WriteByte((s[i+1]-'0')<<6 | (s[i+2]-'0')<<3 | (s[i+3] - '0'))
			i += 3
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isOctal(c byte) bool {
	return c >= '0' && c <= '7'
}
