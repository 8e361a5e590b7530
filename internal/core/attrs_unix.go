//go:build unix

package core

import (
	"golang.org/x/sys/unix"
)

// ownerOf returns the uid and gid of path, or -1 when unknown
func ownerOf(path string) (uid, gid int) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return -1, -1
	}
	return int(st.Uid), int(st.Gid)
}
