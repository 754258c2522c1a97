package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kamusis/sight-cli/internal/index"
)

// validate splits snap into the paths that are still valid and the stale
// ones: missing, no longer a regular file, or with a modification time that
// differs from the stored one. ok is false when ctx was cancelled.
func validate(ctx context.Context, snap *index.Snapshot, log *slog.Logger) (valid map[string]struct{}, stale []string, ok bool) {
	valid = make(map[string]struct{}, snap.Len())
	for _, it := range snap.Items() {
		if ctx.Err() != nil {
			return valid, stale, false
		}
		info, err := os.Stat(it.Path)
		switch {
		case err != nil:
			log.Debug("indexed file no longer exists", slog.String("path", it.Path))
		case !info.Mode().IsRegular():
			log.Debug("indexed path is no longer a file", slog.String("path", it.Path))
		case !info.ModTime().Equal(it.ModifiedAt):
			log.Debug("indexed file was modified", slog.String("path", it.Path))
		default:
			valid[it.Path] = struct{}{}
			continue
		}
		stale = append(stale, it.Path)
	}
	return valid, stale, true
}

// scan walks roots in lexical order and returns the supported files not in
// valid, each path once. A subtree that cannot be read is logged and skipped.
// The error wraps ErrNoRoots when no root could be walked at all.
func scan(ctx context.Context, roots []string, exts map[string]struct{}, valid map[string]struct{}, log *slog.Logger) ([]string, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: no directories configured", ErrNoRoots)
	}

	var (
		queue  []string
		seen   = make(map[string]struct{})
		walked int
		errs   []error
	)

	for _, root := range roots {
		if ctx.Err() != nil {
			return queue, nil
		}
		abs, err := filepath.Abs(root)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", root, err))
			continue
		}
		// WalkDir does not descend into a symlinked root.
		if li, err := os.Lstat(abs); err == nil && li.Mode()&fs.ModeSymlink != 0 {
			if resolved, err := filepath.EvalSymlinks(abs); err == nil {
				abs = resolved
			}
		}
		info, err := os.Stat(abs)
		if err != nil {
			log.Warn("cannot scan directory", slog.String("dir", abs), slog.String("error", err.Error()))
			errs = append(errs, err)
			continue
		}
		if !info.IsDir() {
			err := fmt.Errorf("not a directory: %s", abs)
			log.Warn("cannot scan directory", slog.String("dir", abs), slog.String("error", err.Error()))
			errs = append(errs, err)
			continue
		}
		walked++

		walkErr := filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil {
				log.Warn("skipping unreadable path", slog.String("path", path), slog.String("error", err.Error()))
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if _, ok := exts[strings.ToLower(filepath.Ext(path))]; !ok {
				return nil
			}
			if _, ok := valid[path]; ok {
				return nil
			}
			if _, dup := seen[path]; dup {
				return nil
			}
			seen[path] = struct{}{}
			queue = append(queue, path)
			return nil
		})
		if walkErr != nil && !errors.Is(walkErr, ctx.Err()) {
			log.Warn("directory walk failed", slog.String("dir", abs), slog.String("error", walkErr.Error()))
		}
	}

	if walked == 0 && ctx.Err() == nil {
		return nil, fmt.Errorf("%w: %w", ErrNoRoots, errors.Join(errs...))
	}
	return queue, nil
}
