//go:build unix

package usftp

import (
	"os"
	"syscall"
)

// os specific file stat decoding: extract uid/gid from the os.FileInfo's
// underlying *syscall.Stat_t when present
func fileStatFromInfoOs(fi os.FileInfo, flags *uint32, fileStat *FileStat) {
	if stat, ok := fi.Sys().(*syscall.Stat_t); ok {
		*flags |= sshFileXferAttrUIDGID
		fileStat.UID = stat.Uid
		fileStat.GID = stat.Gid
	}
}
