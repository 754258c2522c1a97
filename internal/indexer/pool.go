package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kamusis/sight-cli/internal/fingerprint"
	"github.com/kamusis/sight-cli/internal/index"
)

type outcome struct {
	item index.Item
	err  error
}

// hashAll fingerprints queue with at most opts.Workers items in flight and
// drains outcomes in submission order. On cancellation it stops dispatching,
// stops draining, and waits for in-flight workers; their outcomes are
// discarded. Only drained, successful items are returned.
func hashAll(ctx context.Context, prov fingerprint.Provider, queue []string, opts Options) (added []index.Item, failed int) {
	total := len(queue)
	slots := make([]chan outcome, total)
	for i := range slots {
		slots[i] = make(chan outcome, 1)
	}

	var g errgroup.Group
	g.SetLimit(opts.Workers)
	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		for i, path := range queue {
			if ctx.Err() != nil {
				return
			}
			g.Go(func() error {
				if ctx.Err() != nil {
					slots[i] <- outcome{err: ctx.Err()}
					return nil
				}
				slots[i] <- hashFile(ctx, prov, path, opts.ItemTimeout)
				return nil
			})
		}
	}()
	defer func() {
		<-dispatched
		_ = g.Wait()
	}()

	log := opts.Logger
	completed := 0
	for i, path := range queue {
		var o outcome
		select {
		case o = <-slots[i]:
		case <-ctx.Done():
			return added, failed
		}
		if ctx.Err() != nil {
			return added, failed
		}

		completed++
		if o.err != nil {
			failed++
			log.Debug("cannot fingerprint file", slog.String("path", path), slog.String("error", o.err.Error()))
		} else {
			added = append(added, o.item)
		}
		if completed%opts.ProgressEvery == 0 || completed == total {
			opts.report(Progress{State: Hashing, Completed: completed, Total: total, Item: path})
		}
	}
	return added, failed
}

// hashFile reads and fingerprints one file, waiting at most timeout for the
// provider. A computation that overruns is abandoned and its result dropped.
func hashFile(ctx context.Context, prov fingerprint.Provider, path string, timeout time.Duration) outcome {
	info, err := os.Stat(path)
	if err != nil {
		return outcome{err: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return outcome{err: err}
	}

	ictx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type computed struct {
		fp  fingerprint.Fingerprint
		err error
	}
	done := make(chan computed, 1)
	go func() {
		fp, err := prov.Compute(ictx, data)
		done <- computed{fp: fp, err: err}
	}()

	select {
	case c := <-done:
		if c.err != nil {
			return outcome{err: c.err}
		}
		return outcome{item: index.Item{Path: path, Fingerprint: c.fp, ModifiedAt: info.ModTime()}}
	case <-ictx.Done():
		if ctx.Err() != nil {
			return outcome{err: ctx.Err()}
		}
		return outcome{err: fmt.Errorf("%w after %s", ErrTimeout, timeout)}
	}
}
