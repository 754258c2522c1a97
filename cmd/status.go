package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/kamusis/sight-cli/internal/index"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the index and configured directories",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	printSection("Index")
	fmt.Printf("  Path:       %s\n", a.cfg.IndexPath)
	fmt.Printf("  Algorithm:  %s\n", a.prov.ID())

	f, status, loadErr := index.Load(a.cfg.IndexPath, index.SchemaVersion(a.prov))
	switch status {
	case index.StatusLoaded:
		fmt.Printf("  Entries:    %d\n", len(f.Entries))
		fmt.Printf("  Created:    %s\n", emptyAsNA(f.CreatedAt))
		fmt.Printf("  Updated:    %s\n", emptyAsNA(f.UpdatedAt))
		if info, err := os.Stat(a.cfg.IndexPath); err == nil {
			fmt.Printf("  Size:       %d bytes\n", info.Size())
		}
	case index.StatusMissing:
		printSkip("", "no index yet; run 'sight index'")
	case index.StatusDiscarded:
		printWarn("", "index was built with a different fingerprint algorithm; 'sight index' will rebuild it")
	case index.StatusUnreadable:
		printErr("", fmt.Sprintf("index cannot be loaded: %v", loadErr))
	}

	lock := index.NewLock(a.cfg.IndexPath)
	switch err := lock.Acquire(0); {
	case err == nil:
		_ = lock.Release()
	case errors.Is(err, index.ErrLocked):
		printInfo("", "indexing in progress")
	default:
		printWarn("", err.Error())
	}

	printSection("Directories")
	if len(a.cfg.Directories) == 0 {
		printSkip("", "none configured; run 'sight dirs add <dir>'")
		return nil
	}
	for _, d := range a.cfg.Directories {
		if info, err := os.Stat(d); err != nil || !info.IsDir() {
			printWarn("", fmt.Sprintf("%s (missing)", d))
			continue
		}
		printOK("", d)
	}
	return nil
}
