//go:build windows

package scanner

import (
	"io/fs"
	"syscall"
	"time"
)

func fileTimes(info fs.FileInfo) (atime, mtime, ctime time.Time) {
	mtime = info.ModTime()
	attr, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return time.Time{}, mtime, time.Time{}
	}
	return time.Unix(0, attr.LastAccessTime.Nanoseconds()), mtime, time.Unix(0, attr.CreationTime.Nanoseconds())
}
