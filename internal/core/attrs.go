package core

import (
	"os"
	"time"

	"github.com/djherbis/times"
)

// statTimes returns the creation and access times of info. Creation falls
// back to the inode change time, then to mtime, where the platform lacks it.
func statTimes(info os.FileInfo) (created, accessed time.Time) {
	ts := times.Get(info)
	switch {
	case ts.HasBirthTime():
		created = ts.BirthTime()
	case ts.HasChangeTime():
		created = ts.ChangeTime()
	default:
		created = ts.ModTime()
	}
	return created, ts.AccessTime()
}
