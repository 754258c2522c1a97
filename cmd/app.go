package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/kamusis/sight-cli/internal/config"
	"github.com/kamusis/sight-cli/internal/fingerprint"
	"github.com/kamusis/sight-cli/internal/index"
	"github.com/kamusis/sight-cli/internal/logging"
)

// app bundles what every command needs after loading config.
type app struct {
	cfg  *config.Config
	prov fingerprint.Provider
	log  *slog.Logger
}

// loadApp loads config, installs the logger and builds the fingerprint
// provider. A missing config file is fine: the defaults apply.
func loadApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("cannot load config: %w", err)
	}

	level := cfg.LogLevel
	if flagDebug {
		level = "debug"
	}
	log := logging.Setup(os.Stderr, logging.Config{Level: level})

	prov, err := fingerprint.New(cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, prov: prov, log: log}, nil
}

// openIndex loads the configured index. Load problems never fail the command:
// they are reported and the index starts empty.
func (a *app) openIndex() (*index.Table, *index.File) {
	table, file, status, err := index.Open(a.cfg.IndexPath, a.prov, a.log)
	switch status {
	case index.StatusUnreadable:
		printWarn("index", fmt.Sprintf("cannot load %s, starting empty: %v", a.cfg.IndexPath, err))
	case index.StatusDiscarded:
		printWarn("index", "index was built with a different fingerprint algorithm; it will be rebuilt")
	}
	return table, file
}

// saveIndex persists the table's current snapshot. file carries the creation
// time across saves; it may be nil for a fresh index.
func (a *app) saveIndex(table *index.Table, file *index.File) error {
	createdAt := time.Now().UTC().Format(time.RFC3339)
	if file != nil {
		if file.CreatedAt == "" {
			file.CreatedAt = createdAt
		}
		createdAt = file.CreatedAt
	}
	return index.Save(a.cfg.IndexPath, index.SchemaVersion(a.prov), createdAt, table.Snapshot().Entries())
}

// requireDirectories returns the directories to index: dirs when given,
// otherwise the configured ones.
func (a *app) requireDirectories(dirs []string) ([]string, error) {
	if len(dirs) == 0 {
		dirs = a.cfg.Directories
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("no directories configured\nRun 'sight dirs add <dir>' first.")
	}
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		p, err := config.ExpandPath(d)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
