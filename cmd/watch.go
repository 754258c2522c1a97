package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kamusis/sight-cli/internal/index"
	"github.com/kamusis/sight-cli/internal/indexer"
	"github.com/kamusis/sight-cli/internal/watcher"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the index up to date as images change",
	Long: `Index the configured directories, then watch them and re-index whenever
images are added, modified or removed. A change arriving during a pass
cancels it; the next pass picks up where it stopped.

Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

var flagWatchDebounce time.Duration

func init() {
	watchCmd.Flags().DurationVar(&flagWatchDebounce, "debounce", watcher.DefaultDebounce, "Quiet period before re-indexing after a change")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	roots, err := a.requireDirectories(nil)
	if err != nil {
		return err
	}

	lock := index.NewLock(a.cfg.IndexPath)
	if err := lock.Acquire(0); err != nil {
		return err
	}
	defer lock.Release()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watcher.New(watcher.Options{
		Roots:      roots,
		Extensions: a.cfg.Extensions,
		Debounce:   flagWatchDebounce,
		Logger:     a.log,
	})
	if err != nil {
		return err
	}

	table, file := a.openIndex()
	runner := indexer.NewRunner(a.prov, table)
	runner.CommitCancelled = true

	trigger := make(chan struct{}, 1)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx, func(paths []string) {
			a.log.Debug("change detected", slog.Int("paths", len(paths)))
			runner.Cancel()
			select {
			case trigger <- struct{}{}:
			default:
			}
		})
	})
	g.Go(func() error {
		printInfo("", fmt.Sprintf("Watching %d director(ies). Press Ctrl-C to stop.", len(roots)))
		for {
			if err := a.watchPass(gctx, runner, roots, table, file); err != nil {
				return err
			}
			select {
			case <-gctx.Done():
				return nil
			case <-trigger:
			}
		}
	})
	return g.Wait()
}

// watchPass runs one pass and saves whatever it committed. Roots that vanish
// between passes and failed saves are reported without stopping the watch.
func (a *app) watchPass(ctx context.Context, runner *indexer.Runner, roots []string, table *index.Table, file *index.File) error {
	res, err := a.indexPass(ctx, runner, roots)
	if errors.Is(err, indexer.ErrNoRoots) {
		printWarn("", err.Error())
		return nil
	}
	if err != nil {
		return err
	}
	if err := a.saveIndex(table, file); err != nil {
		// The table keeps the commit; the next pass saves again.
		printWarn("index", err.Error())
	}
	if res.Cancelled && ctx.Err() == nil {
		printInfo("", "Change detected; restarting indexing.")
		return nil
	}
	printIndexSummary(res, table.Snapshot().Len())
	return nil
}
