//go:build !darwin

package scan

import (
	"os"
	"time"
)

// creationTime falls back to the modification time on platforms without an
// accessible birth time.
func creationTime(fi os.FileInfo) time.Time {
	return fi.ModTime()
}
