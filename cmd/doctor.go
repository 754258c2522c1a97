package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/kamusis/sight-cli/internal/config"
	"github.com/kamusis/sight-cli/internal/fingerprint"
	"github.com/kamusis/sight-cli/internal/index"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run pre-flight environment checks",
	Long: `Check that sight's configuration, directories and index are usable.
Run this command when something seems wrong, or before filing a bug report.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(_ *cobra.Command, _ []string) error {
	allOK := true
	failD := func(format string, args ...any) {
		printErr("", fmt.Sprintf(format, args...))
		allOK = false
	}

	printSection("sight doctor")
	fmt.Println()

	// ── Check 1: sight.yaml exists and parses ─────────────────────────────────
	fmt.Println("[ sight.yaml ]")
	cfgPath, _ := config.ConfigPath()
	cfg, loadErr := config.Load()
	switch {
	case errors.Is(loadErr, os.ErrNotExist):
		printWarn("", fmt.Sprintf("%s not found, using defaults (run 'sight init')", cfgPath))
		loadErr = nil
	case loadErr != nil:
		failD("cannot load config: %v", loadErr)
	default:
		printOK("", fmt.Sprintf("valid YAML: %s", cfgPath))
	}
	fmt.Println()
	if loadErr != nil {
		return fmt.Errorf("doctor found problems")
	}

	// ── Check 2: settings ─────────────────────────────────────────────────────
	fmt.Println("[ Settings ]")
	prov, provErr := fingerprint.New(cfg.Algorithm)
	if provErr != nil {
		failD("%v (known: %v)", provErr, fingerprint.Algorithms())
	} else {
		printOK("", fmt.Sprintf("algorithm %s", prov.ID()))
	}
	if cfg.MaxResults < 0 {
		printWarn("", fmt.Sprintf("max_results %d is negative; the default is used", cfg.MaxResults))
	}
	if cfg.Threshold < 0 {
		printWarn("", fmt.Sprintf("threshold %g is negative; every search returns nothing", cfg.Threshold))
	}
	fmt.Println()

	// ── Check 3: directories ──────────────────────────────────────────────────
	fmt.Println("[ Directories ]")
	if len(cfg.Directories) == 0 {
		failD("no directories configured (run 'sight dirs add <dir>')")
	}
	for _, d := range cfg.Directories {
		info, err := os.Stat(d)
		switch {
		case err != nil:
			failD("%s: %v", d, err)
		case !info.IsDir():
			failD("%s is not a directory", d)
		default:
			if _, err := os.ReadDir(d); err != nil {
				failD("%s is not readable: %v", d, err)
				continue
			}
			printOK("", d)
		}
	}
	fmt.Println()

	// ── Check 4: index ────────────────────────────────────────────────────────
	fmt.Println("[ Index ]")
	if provErr != nil {
		printWarn("", "skipped (unknown algorithm)")
	} else {
		f, status, err := index.Load(cfg.IndexPath, index.SchemaVersion(prov))
		switch status {
		case index.StatusMissing:
			printSkip("", "no index yet; run 'sight index'")
		case index.StatusDiscarded:
			printWarn("", "built with a different algorithm; 'sight index' will rebuild it")
		case index.StatusUnreadable:
			failD("cannot load %s: %v", cfg.IndexPath, err)
		case index.StatusLoaded:
			items := index.Items(f, prov, nil)
			if dropped := len(f.Entries) - len(items); dropped > 0 {
				printWarn("", fmt.Sprintf("%d entr(ies) have invalid fingerprints", dropped))
			}
			var missing int
			for _, it := range items {
				if _, err := os.Stat(it.Path); err != nil {
					missing++
				}
			}
			printOK("", fmt.Sprintf("%d entr(ies) in %s", len(items), cfg.IndexPath))
			if missing > 0 {
				printWarn("", fmt.Sprintf("%d indexed file(s) no longer exist; run 'sight index'", missing))
			}
			outside := countOutside(items, cfg.Directories)
			if outside > 0 {
				printInfo("", fmt.Sprintf("%d entr(ies) lie outside the configured directories", outside))
			}
		}

		lock := index.NewLock(cfg.IndexPath)
		switch err := lock.Acquire(0); {
		case err == nil:
			_ = lock.Release()
			printOK("", "index not locked")
		case errors.Is(err, index.ErrLocked):
			printInfo("", fmt.Sprintf("locked by a running indexer (%s)", lock.Path()))
		default:
			failD("%v", err)
		}
	}
	fmt.Println()

	if !allOK {
		return fmt.Errorf("doctor found problems")
	}
	fmt.Println("  All checks passed.")
	return nil
}

func countOutside(items []index.Item, dirs []string) int {
	var n int
	for _, it := range items {
		if !underAny(it.Path, dirs) {
			n++
		}
	}
	return n
}
