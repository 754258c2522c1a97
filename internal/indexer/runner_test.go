package indexer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamusis/sight-cli/internal/fingerprint/fingerprinttest"
	"github.com/kamusis/sight-cli/internal/index"
)

func TestRunner_CommitsCompletedRun(t *testing.T) {
	root := t.TempDir()
	writeImage(t, filepath.Join(root, "a.png"), "1")

	r := NewRunner(&fingerprinttest.Provider{}, index.NewTable(nil))
	require.NoError(t, r.Start(context.Background(), Options{Roots: []string{root}}))

	res, err := r.Wait()
	require.NoError(t, err)
	assert.Len(t, res.Added, 1)
	assert.Equal(t, 1, r.Table().Snapshot().Len())
	assert.False(t, r.Running())
}

func TestRunner_RejectsConcurrentStart(t *testing.T) {
	root := t.TempDir()
	writeImage(t, filepath.Join(root, "a.png"), "1")

	prov := &fingerprinttest.Provider{Gate: make(chan struct{})}
	r := NewRunner(prov, index.NewTable(nil))
	require.NoError(t, r.Start(context.Background(), Options{Roots: []string{root}}))

	err := r.Start(context.Background(), Options{Roots: []string{root}})
	assert.ErrorIs(t, err, ErrRunning)

	prov.Gate <- struct{}{}
	_, err = r.Wait()
	require.NoError(t, err)
}

func TestRunner_CancelledRunLeavesTableUntouched(t *testing.T) {
	root := t.TempDir()
	writeImage(t, filepath.Join(root, "a.png"), "1")

	prov := &fingerprinttest.Provider{Gate: make(chan struct{}), Started: make(chan struct{})}
	table := index.NewTable(nil)
	r := NewRunner(prov, table)
	require.NoError(t, r.Start(context.Background(), Options{Roots: []string{root}}))

	<-prov.Started
	r.Cancel()
	res, err := r.Wait()
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.Zero(t, table.Snapshot().Len())
}

func TestRunner_WaitWithoutStart(t *testing.T) {
	r := NewRunner(&fingerprinttest.Provider{}, index.NewTable(nil))
	res, err := r.Wait()
	assert.NoError(t, err)
	assert.Nil(t, res)
}

func TestRunner_CancelledRunCommitsCompletedSubset(t *testing.T) {
	root := t.TempDir()
	for i, name := range []string{"a.png", "b.png", "c.png", "d.png"} {
		writeImage(t, filepath.Join(root, name), string(rune('1'+i)))
	}
	gone := filepath.Join(root, "gone.png")
	table := index.NewTable([]index.Item{{Path: gone, Fingerprint: fingerprinttest.Value(9)}})

	prov := &fingerprinttest.Provider{Gate: make(chan struct{})}
	r := NewRunner(prov, table)
	r.CommitCancelled = true

	drained := make(chan struct{})
	require.NoError(t, r.Start(context.Background(), Options{
		Roots:   []string{root},
		Workers: 1,
		OnProgress: func(p Progress) {
			if p.State == Hashing && p.Completed == 2 {
				close(drained)
			}
		},
	}))

	prov.Gate <- struct{}{}
	prov.Gate <- struct{}{}
	<-drained
	r.Cancel()

	res, err := r.Wait()
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.Equal(t, []string{gone}, res.Removed)

	snap := table.Snapshot()
	got := make([]string, 0, snap.Len())
	for _, it := range snap.Items() {
		got = append(got, it.Path)
	}
	assert.Equal(t, []string{filepath.Join(root, "a.png"), filepath.Join(root, "b.png")}, got)
}
