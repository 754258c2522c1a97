package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/kamusis/sight-cli/internal/fingerprint"
	"github.com/kamusis/sight-cli/internal/search"
	"github.com/spf13/cobra"
)

var (
	flagSearchK         int
	flagSearchThreshold float64
	flagSearchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search <image>",
	Short: "Find indexed images that look like <image>",
	Long: `Fingerprint <image> and rank the indexed images by distance to it.

Images within --threshold are returned nearest first. When none are that
close, the nearest images are returned anyway. A negative threshold returns
nothing. The index is read as last saved by 'sight index'.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&flagSearchK, "k", 0, "Maximum number of results (default from config)")
	searchCmd.Flags().Float64Var(&flagSearchThreshold, "threshold", 0, "Maximum distance to count as a match (default from config)")
	searchCmd.Flags().BoolVar(&flagSearchJSON, "json", false, "Print results as JSON")
	rootCmd.AddCommand(searchCmd)
}

type searchHit struct {
	Path     string  `json:"path"`
	Distance float64 `json:"distance"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	opts := search.Options{Limit: a.cfg.MaxResults, Threshold: a.cfg.Threshold}
	if cmd.Flags().Changed("k") {
		opts.Limit = flagSearchK
	}
	if cmd.Flags().Changed("threshold") {
		opts.Threshold = flagSearchThreshold
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	query, err := search.QueryFingerprint(ctx, a.prov, args[0])
	if err != nil {
		if errors.Is(err, fingerprint.ErrDecode) {
			return fmt.Errorf("%w\nSupported formats: jpeg, png, gif, webp, bmp, tiff.", err)
		}
		return err
	}

	table, _ := a.openIndex()
	snap := table.Snapshot()
	if snap.Len() == 0 && !flagSearchJSON {
		printWarn("index", "index is empty; run 'sight index' first")
	}

	prog := newProgressLine(os.Stderr)
	opts.OnProgress = func(p search.Progress) { prog.Update("comparing", p.Completed, p.Total) }

	var (
		results []search.Result
		done    bool
	)
	runner := search.NewRunner(search.NewEngine(a.prov, a.log))
	runner.Submit(ctx, snap, query, opts, func(res []search.Result) {
		results, done = res, true
	})
	runner.Wait()
	prog.Done()
	if !done {
		return fmt.Errorf("search cancelled")
	}

	if flagSearchJSON {
		return printSearchJSON(results)
	}
	printSearchResults(args[0], results)
	return nil
}

func printSearchJSON(results []search.Result) error {
	hits := make([]searchHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, searchHit{Path: r.Path, Distance: r.Distance})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(hits)
}

func printSearchResults(query string, results []search.Result) {
	fmt.Printf("\nsight search %q\n\n", query)
	fmt.Printf("Results (%d found):\n", len(results))
	if len(results) == 0 {
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, r := range results {
		fmt.Fprintf(w, "  %d.\t[%g]\t%s\n", i+1, r.Distance, r.Path)
	}
	_ = w.Flush()
}
