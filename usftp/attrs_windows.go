//go:build windows

package usftp

import "os"

// windows os.FileInfo carries no POSIX uid/gid; nothing to add.
func fileStatFromInfoOs(fi os.FileInfo, flags *uint32, fileStat *FileStat) {
}
