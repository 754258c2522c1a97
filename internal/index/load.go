package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/kamusis/sight-cli/internal/fingerprint"
)

// SchemaVersion returns the schema version an index written with prov carries.
func SchemaVersion(prov fingerprint.Provider) string {
	return fmt.Sprintf("%d/%s", FormatVersion, prov.ID())
}

// Load reads the index at path.
//
// A missing file or a file written under another schema version yields an
// empty index and a nil error. A file that cannot be read or parsed yields an
// empty index together with the error, which callers report as a warning.
// Duplicate paths keep their first occurrence.
func Load(path, schema string) (*File, LoadStatus, error) {
	empty := &File{SchemaVersion: schema}

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return empty, StatusMissing, nil
		}
		return empty, StatusUnreadable, fmt.Errorf("cannot read index %s: %w", path, err)
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return empty, StatusUnreadable, fmt.Errorf("invalid index JSON %s: %w", path, err)
	}
	if f.SchemaVersion != schema {
		return empty, StatusDiscarded, nil
	}

	seen := make(map[string]struct{}, len(f.Entries))
	entries := f.Entries[:0]
	for _, e := range f.Entries {
		if e.Path == "" {
			continue
		}
		if _, dup := seen[e.Path]; dup {
			continue
		}
		seen[e.Path] = struct{}{}
		entries = append(entries, e)
	}
	f.Entries = entries
	return &f, StatusLoaded, nil
}

// Items parses the fingerprints in f. Entries whose fingerprint does not
// parse are dropped and logged; the next indexing run re-fingerprints them.
func Items(f *File, prov fingerprint.Provider, log *slog.Logger) []Item {
	if log == nil {
		log = slog.Default()
	}
	out := make([]Item, 0, len(f.Entries))
	for _, e := range f.Entries {
		fp, err := prov.Parse(e.Fingerprint)
		if err != nil {
			log.Warn("dropping index entry with invalid fingerprint",
				slog.String("path", e.Path),
				slog.String("error", err.Error()))
			continue
		}
		out = append(out, Item{Path: e.Path, Fingerprint: fp, ModifiedAt: e.ModifiedAt})
	}
	return out
}

// Open loads the index at path and returns a live table over it. Load
// problems never fail Open: the table is empty and the error is returned
// alongside for reporting.
func Open(path string, prov fingerprint.Provider, log *slog.Logger) (*Table, *File, LoadStatus, error) {
	f, status, err := Load(path, SchemaVersion(prov))
	return NewTable(Items(f, prov, log)), f, status, err
}
