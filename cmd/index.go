package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kamusis/sight-cli/internal/index"
	"github.com/kamusis/sight-cli/internal/indexer"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Fingerprint new and modified images into the index",
	Long: `Reconcile the index with the configured directories.

Entries whose file was deleted or modified are dropped, then every new or
modified image is fingerprinted and added. Interrupting with Ctrl-C keeps
the images fingerprinted so far.

Use --force to discard the index and fingerprint everything again.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

var (
	flagIndexDirs    []string
	flagIndexWorkers int
	flagIndexForce   bool
)

func init() {
	indexCmd.Flags().StringSliceVar(&flagIndexDirs, "dir", nil, "Directory to index instead of the configured ones (repeatable)")
	indexCmd.Flags().IntVar(&flagIndexWorkers, "workers", 0, "Parallel fingerprinting workers (0 = config or one per CPU)")
	indexCmd.Flags().BoolVar(&flagIndexForce, "force", false, "Rebuild the index from scratch")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	roots, err := a.requireDirectories(flagIndexDirs)
	if err != nil {
		return err
	}
	if flagIndexWorkers > 0 {
		a.cfg.Workers = flagIndexWorkers
	}

	lock := index.NewLock(a.cfg.IndexPath)
	if err := lock.Acquire(0); err != nil {
		if errors.Is(err, index.ErrLocked) {
			return fmt.Errorf("%w\nAnother 'sight index' or 'sight watch' is running.", err)
		}
		return err
	}
	defer lock.Release()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table, file := a.openIndex()
	runner := indexer.NewRunner(a.prov, table)
	runner.CommitCancelled = true
	if flagIndexForce {
		// A cancelled rebuild leaves the file on disk untouched.
		table.Reset()
		runner.CommitCancelled = false
		file = nil
	}

	res, err := a.indexPass(ctx, runner, roots)
	if err != nil {
		return err
	}
	if res.Cancelled && flagIndexForce {
		printWarn("", "Rebuild cancelled; index left unchanged.")
		return nil
	}
	if err := a.saveIndex(table, file); err != nil {
		return err
	}
	printIndexSummary(res, table.Snapshot().Len())
	return nil
}

// indexPass runs one indexing pass on runner and waits for it, drawing
// progress on the terminal.
func (a *app) indexPass(ctx context.Context, runner *indexer.Runner, roots []string) (*indexer.Result, error) {
	prog := newProgressLine(os.Stderr)
	opts := indexer.Options{
		Roots:         roots,
		Extensions:    a.cfg.Extensions,
		Workers:       a.cfg.Workers,
		ItemTimeout:   a.cfg.ItemTimeout,
		ProgressEvery: 1,
		Logger:        a.log,
		OnProgress: func(p indexer.Progress) {
			if p.State == indexer.Hashing {
				prog.Update("fingerprinting", p.Completed, p.Total)
			}
		},
	}
	if err := runner.Start(ctx, opts); err != nil {
		return nil, err
	}
	res, err := runner.Wait()
	prog.Done()
	return res, err
}

func printIndexSummary(res *indexer.Result, total int) {
	if res.Cancelled {
		printWarn("", "Indexing cancelled; keeping the images fingerprinted so far.")
	}
	printOK("", fmt.Sprintf("Added %d, removed %d, %d in index", len(res.Added), len(res.Removed), total))
	if res.Failed > 0 {
		printWarn("", fmt.Sprintf("%d file(s) could not be fingerprinted (run with --debug for details)", res.Failed))
	}
}
