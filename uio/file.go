package uio

import (
	"os"
	"sort"
)

//
// does file (or dir) exist?
//
func FileExists(file string) bool {
	_, err := os.Stat(file)
	return err == nil
}

type file_by_mtime []os.FileInfo

func (this file_by_mtime) Len() int      { return len(this) }
func (this file_by_mtime) Swap(i, j int) { this[i], this[j] = this[j], this[i] }
func (this file_by_mtime) Less(i, j int) bool {
	return this[i].ModTime().Before(this[j].ModTime())
}

//
// sort files by mod time, oldest to youngest
//
func SortByModTime(files []os.FileInfo) {
	if 1 < len(files) {
		sort.Sort(file_by_mtime(files))
	}
}
