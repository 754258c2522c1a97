package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_DebouncesImageChanges(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	w, err := New(Options{
		Roots:      []string{root},
		Extensions: []string{".png"},
		Debounce:   50 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	batches := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(paths []string) { batches <- paths })
	}()

	img := filepath.Join(sub, "a.png")
	require.NoError(t, os.WriteFile(img, []byte("1"), 0o644))

	select {
	case got := <-batches:
		assert.Contains(t, got, img)
	case <-time.After(5 * time.Second):
		t.Fatal("no change batch delivered")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestNew_FailsWithoutWatchableRoot(t *testing.T) {
	_, err := New(Options{Roots: []string{filepath.Join(t.TempDir(), "missing")}})
	assert.Error(t, err)
}

func TestWatcher_IgnoresUnsupportedExtensions(t *testing.T) {
	w := &Watcher{exts: map[string]struct{}{".png": {}}}
	assert.True(t, w.relevant(fsnotify.Event{Name: "/x/a.PNG", Op: fsnotify.Write}))
	assert.False(t, w.relevant(fsnotify.Event{Name: "/x/a.txt", Op: fsnotify.Write}))
	assert.True(t, w.relevant(fsnotify.Event{Name: "/x/dir", Op: fsnotify.Remove}))
	assert.False(t, w.relevant(fsnotify.Event{Name: "/x/a.png", Op: fsnotify.Chmod}))
}

func TestNew_NormalizesExtensions(t *testing.T) {
	w, err := New(Options{Roots: []string{t.TempDir()}, Extensions: []string{"png", " JPG "}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.fsw.Close() })

	assert.True(t, w.relevant(fsnotify.Event{Name: "/x/a.png", Op: fsnotify.Create}))
	assert.True(t, w.relevant(fsnotify.Event{Name: "/x/b.jpg", Op: fsnotify.Write}))
	assert.False(t, w.relevant(fsnotify.Event{Name: "/x/c.gif", Op: fsnotify.Write}))
}
