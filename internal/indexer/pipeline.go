package indexer

import (
	"context"
	"log/slog"

	"github.com/kamusis/sight-cli/internal/fingerprint"
	"github.com/kamusis/sight-cli/internal/index"
)

// Run reconciles snap against the filesystem under opts.Roots.
//
// It never mutates snap. Stale entries are reported in Result.Removed and new
// or modified files, once fingerprinted, in Result.Added; the caller commits
// both in one step. Cancelling ctx ends the run early with Result.Cancelled
// set and only the items that completed before cancellation. Run returns an
// error, and no result, only when none of the roots could be scanned.
func Run(ctx context.Context, prov fingerprint.Provider, snap *index.Snapshot, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	log := opts.Logger
	if snap == nil {
		snap = index.NewSnapshot(nil)
	}
	res := &Result{}

	opts.report(Progress{State: Validating, Total: snap.Len()})
	log.Info("validating existing index", slog.Int("entries", snap.Len()))
	valid, stale, ok := validate(ctx, snap, log)
	res.Removed = stale
	if len(stale) > 0 {
		log.Info("found stale index entries", slog.Int("count", len(stale)))
	}
	if !ok {
		return cancelled(res, opts), nil
	}

	opts.report(Progress{State: Scanning})
	log.Info("scanning directories", slog.Int("dirs", len(opts.Roots)))
	queue, err := scan(ctx, opts.Roots, ExtensionSet(opts.Extensions), valid, log)
	if err != nil {
		log.Error("indexing failed", slog.String("error", err.Error()))
		return nil, err
	}
	if ctx.Err() != nil {
		return cancelled(res, opts), nil
	}
	if len(queue) == 0 {
		log.Info("no new files to index")
		opts.report(Progress{State: Completed})
		return res, nil
	}

	log.Info("fingerprinting new files", slog.Int("files", len(queue)), slog.Int("workers", opts.Workers))
	opts.report(Progress{State: Hashing, Total: len(queue)})
	res.Added, res.Failed = hashAll(ctx, prov, queue, opts)
	if ctx.Err() != nil {
		log.Info("indexing stopped",
			slog.Int("completed", len(res.Added)+res.Failed),
			slog.Int("total", len(queue)))
		return cancelled(res, opts), nil
	}

	log.Info("indexing complete",
		slog.Int("succeeded", len(res.Added)),
		slog.Int("failed", res.Failed),
		slog.Int("removed", len(res.Removed)))
	opts.report(Progress{State: Completed, Completed: len(queue), Total: len(queue)})
	return res, nil
}

func cancelled(res *Result, opts Options) *Result {
	res.Cancelled = true
	opts.report(Progress{State: Cancelled, Completed: len(res.Added) + res.Failed})
	return res
}
