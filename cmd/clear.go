package cmd

import (
	"fmt"

	"github.com/kamusis/sight-cli/internal/index"
	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the index",
	Long: `Delete the index file. The configured directories are kept; run
'sight index' to build a new index.`,
	Args: cobra.NoArgs,
	RunE: runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)
}

func runClear(_ *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	lock := index.NewLock(a.cfg.IndexPath)
	if err := lock.Acquire(0); err != nil {
		return err
	}
	defer lock.Release()

	if err := index.Remove(a.cfg.IndexPath); err != nil {
		return err
	}
	printOK("", fmt.Sprintf("Index cleared: %s", a.cfg.IndexPath))
	return nil
}
