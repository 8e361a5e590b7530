// Package lock guards a container file against a second concurrent writer.
package lock

import "errors"

// Suffix is appended to the container path to name its lock file
const Suffix = ".lock"

// ErrLocked is returned when another process holds the lock
var ErrLocked = errors.New("container is in use by another process")

// PathFor returns the lock file path for a container
func PathFor(containerPath string) string {
	return containerPath + Suffix
}
