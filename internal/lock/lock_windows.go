//go:build windows

package lock

import (
	"os"
)

// Acquire atomically creates the lock file of containerPath. An existing
// lock file means another process owns the container.
func Acquire(containerPath string) (*os.File, error) {
	f, err := os.OpenFile(PathFor(containerPath), os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		return nil, ErrLocked
	}
	return f, nil
}

// Release closes and removes the lock file. Call it once per Acquire.
func Release(f *os.File) {
	if f == nil {
		return
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
}
