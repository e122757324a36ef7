//go:build windows

package storage

import (
	"os"
	"path/filepath"
)

// Directories cannot be synced on Windows, and volume roots always exist.
func init() {
	osSpecificEnsureDir = ensureDirWindows
	osSpecificSync = syncWindows
}

func ensureDirWindows(o osOps, dir string, mode os.FileMode) error {
	if dir == filepath.VolumeName(dir)+string(os.PathSeparator) {
		return nil
	}
	return o.MkdirAll(dir, mode)
}

func syncWindows(f *os.File, isDir bool) error {
	if isDir {
		return nil
	}
	return f.Sync()
}
