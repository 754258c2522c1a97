package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Save writes entries to path under schema. The write goes to a temporary
// file that replaces path in one rename, so a concurrent Load sees either the
// previous index or the new one.
func Save(path, schema, createdAt string, entries []Entry) error {
	now := time.Now().UTC().Format(time.RFC3339)
	if createdAt == "" {
		createdAt = now
	}
	if entries == nil {
		entries = []Entry{}
	}
	f := File{
		SchemaVersion: schema,
		CreatedAt:     createdAt,
		UpdatedAt:     now,
		Entries:       entries,
	}
	b, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("cannot marshal index: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create index dir: %w", err)
	}
	if err := replaceFile(path, b); err != nil {
		return fmt.Errorf("cannot write index %s: %w", path, err)
	}
	return nil
}

// Remove deletes the index file at path. A missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot remove index %s: %w", path, err)
	}
	return nil
}
