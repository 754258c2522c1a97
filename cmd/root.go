package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagDebug bool

var rootCmd = &cobra.Command{
	Use:          "sight",
	Short:        "sight — local reverse image search",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `sight fingerprints the images under your configured directories into a
local index at ~/.sight/ and finds the indexed images that look most like a
query image.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Print debug logs to stderr")
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
