package cmd

import (
	"fmt"
	"os"

	"github.com/kamusis/sight-cli/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [dir...]",
	Short: "Create ~/.sight/ and the default configuration",
	Long: `Initialize sight's home at ~/.sight/ (or $SIGHT_HOME).

Writes sight.yaml with default settings and a .env override template.
Directories given as arguments are added to the configuration.
Running init again keeps the existing configuration.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, args []string) error {
	// ── 1. Resolve ~/.sight directory ─────────────────────────────────────────
	sightDir, err := config.SightDir()
	if err != nil {
		return err
	}
	cfgPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	// ── 2. Create ~/.sight/ if it doesn't exist ───────────────────────────────
	if err := os.MkdirAll(sightDir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", sightDir, err)
	}
	printOK("", fmt.Sprintf("sight directory ready: %s", sightDir))

	// ── 3. Write sight.yaml if missing ────────────────────────────────────────
	var cfg *config.Config
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg, err = config.DefaultConfig()
		if err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("Config written: %s", cfgPath))
	} else {
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("cannot load config: %w", err)
		}
		printSkip("", fmt.Sprintf("Config already exists: %s", cfgPath))
	}

	// ── 4. Write .env template ────────────────────────────────────────────────
	if err := config.EnsureDotEnvTemplate(); err != nil {
		return err
	}

	// ── 5. Add directories from args ──────────────────────────────────────────
	if len(args) > 0 {
		if err := addDirectories(cfg, args); err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return err
		}
	}

	if len(cfg.Directories) == 0 {
		printInfo("", "No directories configured yet. Run 'sight dirs add <dir>'.")
	} else {
		printInfo("", "Run 'sight index' to build the index.")
	}
	return nil
}
