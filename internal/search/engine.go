// Package search ranks indexed fingerprints against a query fingerprint.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/kamusis/sight-cli/internal/fingerprint"
	"github.com/kamusis/sight-cli/internal/index"
)

// Engine compares a query against every entry of a snapshot.
type Engine struct {
	prov fingerprint.Provider
	log  *slog.Logger
}

// NewEngine returns an engine using prov's distance.
func NewEngine(prov fingerprint.Provider, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{prov: prov, log: log}
}

// Search returns up to opts.Limit entries of snap ordered by ascending
// distance to query. Entries within opts.Threshold are preferred; when none
// qualify and the threshold is non-negative, the nearest entries are returned
// anyway. A negative threshold returns no results.
//
// Candidates that cannot be compared are skipped. snap is only read. If ctx
// is cancelled, Search returns ctx.Err() and no results.
func (e *Engine) Search(ctx context.Context, snap *index.Snapshot, query fingerprint.Fingerprint, opts Options) ([]Result, error) {
	opts = opts.withDefaults()
	items := snap.Items()
	total := len(items)

	var (
		within  []Result
		all     = make([]Result, 0, total)
		skipped int
	)
	for i, it := range items {
		if i%opts.BatchSize == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		d, err := e.prov.Distance(query, it.Fingerprint)
		if err != nil {
			skipped++
		} else {
			r := Result{Path: it.Path, Distance: d}
			all = append(all, r)
			if d <= opts.Threshold {
				within = append(within, r)
			}
		}

		if n := i + 1; n%opts.BatchSize == 0 || n == total {
			if opts.OnProgress != nil {
				opts.OnProgress(Progress{Completed: n, Total: total})
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if skipped > 0 {
		e.log.Warn("skipped incomparable index entries", slog.Int("count", skipped))
	}

	ranked := within
	if len(ranked) == 0 {
		if opts.Threshold < 0 {
			return []Result{}, nil
		}
		ranked = all
		if len(ranked) > 0 {
			e.log.Debug("no match within threshold, returning nearest",
				slog.Float64("threshold", opts.Threshold))
		}
	}

	SortResults(ranked)
	if len(ranked) > opts.Limit {
		ranked = ranked[:opts.Limit]
	}
	return ranked, nil
}

// QueryFingerprint reads the image at path and fingerprints it.
func QueryFingerprint(ctx context.Context, prov fingerprint.Provider, path string) (fingerprint.Fingerprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read query image: %w", err)
	}
	fp, err := prov.Compute(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("cannot fingerprint query image %s: %w", path, err)
	}
	return fp, nil
}
