package store

import (
	"io/fs"
	"path/filepath"
)

// DiskUsageBytes returns the best-effort on-disk size of the store
// directory. Used by the admin stats endpoint; 0 when the store is not
// opened.
func DiskUsageBytes() uint64 {
	if db == nil || dbPath == "" {
		return 0
	}
	var total uint64
	_ = filepath.WalkDir(dbPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if fi, err := d.Info(); err == nil {
			total += uint64(fi.Size())
		}
		return nil
	})
	return total
}
