//go:build darwin

package scan

import (
	"os"
	"syscall"
	"time"
)

// creationTime returns the file's birth time where the platform records one.
func creationTime(fi os.FileInfo) time.Time {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Birthtimespec.Sec, st.Birthtimespec.Nsec)
	}
	return fi.ModTime()
}
