package index

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamusis/sight-cli/internal/fingerprint/fingerprinttest"
)

func item(path string, v int64) Item {
	return Item{Path: path, Fingerprint: fingerprinttest.Value(v)}
}

func paths(s *Snapshot) []string {
	out := make([]string, 0, s.Len())
	for _, it := range s.Items() {
		out = append(out, it.Path)
	}
	return out
}

func TestTable_CommitRemovesThenAppends(t *testing.T) {
	table := NewTable([]Item{item("/a", 1), item("/b", 2), item("/c", 3)})
	before := table.Snapshot()

	after := table.Commit([]string{"/b"}, []Item{item("/d", 4), item("/b", 5)})

	assert.Equal(t, []string{"/a", "/b", "/c"}, paths(before), "old snapshot must not change")
	assert.Equal(t, []string{"/a", "/c", "/d", "/b"}, paths(after))
	assert.Same(t, after, table.Snapshot())

	b, ok := after.Lookup("/b")
	require.True(t, ok)
	assert.Equal(t, fingerprinttest.Value(5), b.Fingerprint)
}

func TestTable_CommitNeverDuplicatesPath(t *testing.T) {
	table := NewTable([]Item{item("/a", 1)})
	snap := table.Commit(nil, []Item{item("/a", 2), item("/a", 3)})
	assert.Equal(t, 1, snap.Len())
}

func TestTable_Reset(t *testing.T) {
	table := NewTable([]Item{item("/a", 1)})
	table.Reset()
	assert.Zero(t, table.Snapshot().Len())
}

func TestSnapshot_Entries(t *testing.T) {
	mod := time.Unix(1700000000, 0).UTC()
	s := NewSnapshot([]Item{{Path: "/a", Fingerprint: fingerprinttest.Value(7), ModifiedAt: mod}})
	assert.Equal(t, []Entry{{Path: "/a", Fingerprint: "fake:7", ModifiedAt: mod}}, s.Entries())
}

func TestLock_ExcludesSecondHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	first := NewLock(path)
	require.NoError(t, first.Acquire(0))
	t.Cleanup(func() { _ = first.Release() })

	second := NewLock(path)
	err := second.Acquire(0)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, first.Release())
	require.NoError(t, second.Acquire(time.Second))
	require.NoError(t, second.Release())
	require.NoError(t, second.Release())
}
