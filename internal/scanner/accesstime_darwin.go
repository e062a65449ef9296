//go:build darwin

package scanner

import (
	"io/fs"
	"syscall"
	"time"
)

func fileTimes(info fs.FileInfo) (atime, mtime, ctime time.Time) {
	mtime = info.ModTime()
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return time.Time{}, mtime, time.Time{}
	}
	return time.Unix(st.Atimespec.Unix()), mtime, time.Unix(st.Birthtimespec.Unix())
}
