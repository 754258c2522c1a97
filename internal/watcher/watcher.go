// Package watcher turns filesystem changes under the indexed directories into
// debounced re-index requests.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kamusis/sight-cli/internal/indexer"
)

// DefaultDebounce is the quiet period after the last change before a
// re-index is requested.
const DefaultDebounce = 2 * time.Second

// Options configures a Watcher. Extensions are normalized the way the
// indexer normalizes them; empty means the indexer's default set.
type Options struct {
	Roots      []string
	Extensions []string
	Debounce   time.Duration
	Logger     *slog.Logger
}

// Watcher watches directory trees recursively.
type Watcher struct {
	fsw      *fsnotify.Watcher
	exts     map[string]struct{}
	debounce time.Duration
	log      *slog.Logger
}

// New creates a watcher over every directory under opts.Roots. Roots that
// cannot be watched are logged and skipped; New fails only if none can.
func New(opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("cannot create file watcher: %w", err)
	}
	w := &Watcher{
		fsw:      fsw,
		exts:     indexer.ExtensionSet(opts.Extensions),
		debounce: opts.Debounce,
		log:      opts.Logger,
	}

	watched := 0
	for _, root := range opts.Roots {
		if err := w.addRecursive(root); err != nil {
			w.log.Warn("cannot watch directory", slog.String("dir", root), slog.String("error", err.Error()))
			continue
		}
		watched++
	}
	if watched == 0 {
		_ = fsw.Close()
		return nil, fmt.Errorf("no directory could be watched")
	}
	return w, nil
}

func (w *Watcher) addRecursive(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			w.log.Debug("cannot watch directory", slog.String("dir", path), slog.String("error", err.Error()))
		}
		return nil
	})
}

// relevant reports whether ev may change the index.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		// A removed directory carries no extension but may hold images.
		return true
	}
	_, ok := w.exts[strings.ToLower(filepath.Ext(ev.Name))]
	return ok
}

// Run delivers debounced change batches to onChange until ctx is done.
// onChange runs on the watcher goroutine; a slow callback delays, but never
// drops, later batches.
func (w *Watcher) Run(ctx context.Context, onChange func(paths []string)) error {
	defer w.fsw.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(ev.Name); err != nil {
						w.log.Debug("cannot watch new directory", slog.String("dir", ev.Name), slog.String("error", err.Error()))
					}
					pending[ev.Name] = struct{}{}
					timer.Reset(w.debounce)
					continue
				}
			}
			if !w.relevant(ev) {
				continue
			}
			pending[ev.Name] = struct{}{}
			timer.Reset(w.debounce)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("file watcher error", slog.String("error", err.Error()))
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			onChange(paths)
		}
	}
}
