//go:build !windows

package index

import "github.com/google/renameio"

// replaceFile atomically replaces path with data.
func replaceFile(path string, data []byte) error {
	return renameio.WriteFile(path, data, 0o644)
}
