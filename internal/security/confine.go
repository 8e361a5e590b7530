// Package security confines writes of stored file names to a target directory.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	ErrEmptyName   = errors.New("empty file name")
	ErrNameEscapes = errors.New("file name escapes target directory")
)

// Dir is a directory that only accepts local names, backed by os.Root
type Dir struct {
	root *os.Root
	path string
}

// OpenDir creates dir if needed and opens it as a confinement root
func OpenDir(dir string, perm os.FileMode) (*Dir, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	if err := os.MkdirAll(absPath, perm); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", absPath, err)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", absPath, err)
	}
	return &Dir{root: root, path: absPath}, nil
}

// Close releases the root handle
func (d *Dir) Close() error {
	if d.root != nil {
		return d.root.Close()
	}
	return nil
}

// Path returns the absolute directory path
func (d *Dir) Path() string {
	return d.path
}

// ValidateName accepts a single path element that stays inside the directory.
// Stored names come from decrypted metadata and are checked before any write.
func ValidateName(name string) (string, error) {
	if name == "" {
		return "", ErrEmptyName
	}
	if filepath.Base(name) != name || !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: %q", ErrNameEscapes, name)
	}
	return name, nil
}

// WriteFile writes data to name inside the directory
func (d *Dir) WriteFile(name string, data []byte, perm os.FileMode) (string, error) {
	name, err := ValidateName(name)
	if err != nil {
		return "", err
	}
	if err := d.root.WriteFile(name, data, perm); err != nil {
		return "", err
	}
	return filepath.Join(d.path, name), nil
}
