package index

import (
	"time"

	"github.com/kamusis/sight-cli/internal/fingerprint"
)

// FormatVersion is the on-disk layout version. It is combined with the
// provider ID to form the schema version.
const FormatVersion = 1

// Entry is one persisted row of the index.
type Entry struct {
	Path        string    `json:"path"`
	Fingerprint string    `json:"fingerprint"`
	ModifiedAt  time.Time `json:"modified_at"`
}

// File is the persisted index.
type File struct {
	SchemaVersion string  `json:"schema_version"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
	Entries       []Entry `json:"entries"`
}

// Item is an in-memory index entry with a parsed fingerprint.
type Item struct {
	Path        string
	Fingerprint fingerprint.Fingerprint
	ModifiedAt  time.Time
}

// Entry returns the persisted form of it.
func (it Item) Entry() Entry {
	return Entry{
		Path:        it.Path,
		Fingerprint: it.Fingerprint.String(),
		ModifiedAt:  it.ModifiedAt,
	}
}

// LoadStatus reports how Load arrived at its result.
type LoadStatus int

const (
	// StatusLoaded means a compatible index was read.
	StatusLoaded LoadStatus = iota
	// StatusMissing means no index file exists yet.
	StatusMissing
	// StatusDiscarded means the index was written under another schema
	// version and was dropped wholesale.
	StatusDiscarded
	// StatusUnreadable means the file could not be read or parsed.
	StatusUnreadable
)

func (s LoadStatus) String() string {
	switch s {
	case StatusLoaded:
		return "loaded"
	case StatusMissing:
		return "missing"
	case StatusDiscarded:
		return "discarded (schema mismatch)"
	case StatusUnreadable:
		return "unreadable"
	default:
		return "unknown"
	}
}
