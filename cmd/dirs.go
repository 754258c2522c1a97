package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kamusis/sight-cli/internal/config"
	"github.com/kamusis/sight-cli/internal/index"
	"github.com/spf13/cobra"
)

var dirsCmd = &cobra.Command{
	Use:   "dirs",
	Short: "Manage the directories sight indexes",
}

var dirsAddCmd = &cobra.Command{
	Use:   "add <dir>...",
	Short: "Add directories to the configuration",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDirsAdd,
}

var dirsRemoveCmd = &cobra.Command{
	Use:   "remove <dir>...",
	Short: "Remove directories from the configuration",
	Long: `Remove directories from the configuration.

With --purge, index entries under the removed directories are dropped
immediately instead of on the next 'sight index'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDirsRemove,
}

var dirsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured directories",
	Args:  cobra.NoArgs,
	RunE:  runDirsList,
}

var flagPurge bool

func init() {
	dirsRemoveCmd.Flags().BoolVar(&flagPurge, "purge", false, "Drop index entries under the removed directories now")
	dirsCmd.AddCommand(dirsAddCmd, dirsRemoveCmd, dirsListCmd)
	rootCmd.AddCommand(dirsCmd)
}

// loadConfigForEdit loads the config, treating a missing file as defaults.
func loadConfigForEdit() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("cannot load config: %w", err)
	}
	return cfg, nil
}

// addDirectories adds each dir to cfg, reporting per directory. Directories
// that do not exist are rejected.
func addDirectories(cfg *config.Config, dirs []string) error {
	var failed int
	for _, d := range dirs {
		p, err := config.ExpandPath(d)
		if err != nil {
			return err
		}
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			printErr(d, "not a directory")
			failed++
			continue
		}
		added, err := cfg.AddDirectory(p)
		if err != nil {
			return err
		}
		if added {
			printOK(d, "added")
		} else {
			printSkip(d, "already configured")
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d director(ies) could not be added", failed)
	}
	return nil
}

func runDirsAdd(_ *cobra.Command, args []string) error {
	cfg, err := loadConfigForEdit()
	if err != nil {
		return err
	}
	addErr := addDirectories(cfg, args)
	if err := config.Save(cfg); err != nil {
		return err
	}
	return addErr
}

func runDirsRemove(_ *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	cfg := a.cfg

	var removed []string
	for _, d := range args {
		ok, err := cfg.RemoveDirectory(d)
		if err != nil {
			return err
		}
		if !ok {
			printSkip(d, "not configured")
			continue
		}
		p, _ := config.ExpandPath(d)
		abs, _ := filepath.Abs(p)
		removed = append(removed, abs)
		printOK(d, "removed")
	}
	if err := config.Save(cfg); err != nil {
		return err
	}
	if !flagPurge || len(removed) == 0 {
		return nil
	}

	lock := index.NewLock(cfg.IndexPath)
	if err := lock.Acquire(0); err != nil {
		return err
	}
	defer lock.Release()

	table, file := a.openIndex()
	var drop []string
	for _, it := range table.Snapshot().Items() {
		if underAny(it.Path, removed) {
			drop = append(drop, it.Path)
		}
	}
	table.Commit(drop, nil)
	if err := a.saveIndex(table, file); err != nil {
		return err
	}
	printInfo("index", fmt.Sprintf("purged %d entr(ies)", len(drop)))
	return nil
}

// underAny reports whether path lies inside one of dirs.
func underAny(path string, dirs []string) bool {
	for _, d := range dirs {
		rel, err := filepath.Rel(d, path)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel) {
			return true
		}
	}
	return false
}

func runDirsList(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfigForEdit()
	if err != nil {
		return err
	}
	if len(cfg.Directories) == 0 {
		printInfo("", "No directories configured.")
		return nil
	}
	for _, d := range cfg.Directories {
		if info, err := os.Stat(d); err != nil || !info.IsDir() {
			printWarn("", fmt.Sprintf("%s (missing)", d))
			continue
		}
		printOK("", d)
	}
	return nil
}
