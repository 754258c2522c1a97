//go:build windows

package index

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/windows"
)

// replaceFile atomically replaces path with data.
//
// os.Rename on Windows fails when the destination is open elsewhere, so the
// swap goes through MoveFileEx with REPLACE_EXISTING.
func replaceFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}

	from, err := windows.UTF16PtrFromString(tmpName)
	if err != nil {
		cleanup()
		return err
	}
	to, err := windows.UTF16PtrFromString(path)
	if err != nil {
		cleanup()
		return err
	}
	if err := windows.MoveFileEx(from, to, windows.MOVEFILE_REPLACE_EXISTING|windows.MOVEFILE_WRITE_THROUGH); err != nil {
		cleanup()
		return err
	}
	return nil
}
