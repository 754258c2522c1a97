package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the in-memory representation of ~/.sight/sight.yaml.
type Config struct {
	Directories []string      `yaml:"directories"`
	IndexPath   string        `yaml:"index_path,omitempty"`
	Algorithm   string        `yaml:"algorithm,omitempty"`
	MaxResults  int           `yaml:"max_results"`
	Threshold   float64       `yaml:"threshold"`
	Workers     int           `yaml:"workers,omitempty"`
	ItemTimeout time.Duration `yaml:"item_timeout,omitempty"`
	Extensions  []string      `yaml:"extensions,omitempty"`
	LogLevel    string        `yaml:"log_level,omitempty"`
}

// SightDir returns the absolute path to ~/.sight/, or $SIGHT_HOME when set.
func SightDir() (string, error) {
	if dir := os.Getenv("SIGHT_HOME"); dir != "" {
		return ExpandPath(dir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".sight"), nil
}

// ConfigPath returns the absolute path to ~/.sight/sight.yaml.
func ConfigPath() (string, error) {
	dir, err := SightDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sight.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the Config written on first sight init.
func DefaultConfig() (*Config, error) {
	dir, err := SightDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		Directories: []string{},
		IndexPath:   filepath.Join(dir, "index.json"),
		Algorithm:   "phash",
		MaxResults:  20,
		Threshold:   8,
		ItemTimeout: 30 * time.Second,
		LogLevel:    "warn",
	}, nil
}

// Load reads and parses ~/.sight/sight.yaml, then applies environment
// overrides. A missing file yields the defaults and an error wrapping
// os.ErrNotExist, so callers can tell the two apart.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := DefaultConfig()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if envErr := applyEnv(cfg); envErr != nil {
				return nil, envErr
			}
			if nErr := cfg.normalize(); nErr != nil {
				return nil, nErr
			}
			return cfg, fmt.Errorf("config %s: %w", path, os.ErrNotExist)
		}
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envOverride binds one SIGHT_* key to the config field it overrides.
type envOverride struct {
	key   string
	help  string
	apply func(c *Config, v string) error
}

// envOverrides lists every key applyEnv honours, in template order.
var envOverrides = []envOverride{
	{"SIGHT_INDEX_PATH", "index file location", func(c *Config, v string) error {
		c.IndexPath = v
		return nil
	}},
	{"SIGHT_ALGORITHM", "fingerprint algorithm: phash, dhash or ahash", func(c *Config, v string) error {
		c.Algorithm = v
		return nil
	}},
	{"SIGHT_WORKERS", "parallel fingerprinting workers", func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.Workers = n
		return nil
	}},
	{"SIGHT_MAX_RESULTS", "maximum search results", func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.MaxResults = n
		return nil
	}},
	{"SIGHT_THRESHOLD", "maximum match distance; negative returns nothing", func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		c.Threshold = f
		return nil
	}},
	{"SIGHT_LOG_LEVEL", "debug, info, warn or error", func(c *Config, v string) error {
		c.LogLevel = v
		return nil
	}},
}

// EnvKeys returns the SIGHT_* keys that override sight.yaml.
func EnvKeys() []string {
	keys := make([]string, len(envOverrides))
	for i, o := range envOverrides {
		keys[i] = o.key
	}
	return keys
}

// applyEnv overrides fields from SIGHT_* values (environment first, then
// ~/.sight/.env).
func applyEnv(cfg *Config) error {
	for _, o := range envOverrides {
		v, err := GetConfigValue(o.key)
		if err != nil {
			return err
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if err := o.apply(cfg, v); err != nil {
			return fmt.Errorf("invalid %s %q: %w", o.key, v, err)
		}
	}
	return nil
}

// normalize expands ~ in paths and drops duplicate directories.
func (c *Config) normalize() error {
	var err error
	c.IndexPath, err = ExpandPath(c.IndexPath)
	if err != nil {
		return err
	}
	dirs := make([]string, 0, len(c.Directories))
	for _, d := range c.Directories {
		d, err = ExpandPath(d)
		if err != nil {
			return err
		}
		if !slices.Contains(dirs, d) {
			dirs = append(dirs, d)
		}
	}
	c.Directories = dirs
	return nil
}

// AddDirectory adds dir as an absolute path. It reports false if dir was
// already configured.
func (c *Config) AddDirectory(dir string) (bool, error) {
	abs, err := absDir(dir)
	if err != nil {
		return false, err
	}
	if slices.Contains(c.Directories, abs) {
		return false, nil
	}
	c.Directories = append(c.Directories, abs)
	return true, nil
}

// RemoveDirectory removes dir. It reports false if dir was not configured.
func (c *Config) RemoveDirectory(dir string) (bool, error) {
	abs, err := absDir(dir)
	if err != nil {
		return false, err
	}
	i := slices.Index(c.Directories, abs)
	if i < 0 {
		return false, nil
	}
	c.Directories = slices.Delete(c.Directories, i, i+1)
	return true, nil
}

func absDir(dir string) (string, error) {
	dir, err := ExpandPath(dir)
	if err != nil {
		return "", err
	}
	return filepath.Abs(dir)
}

// Save marshals cfg and writes it to ~/.sight/sight.yaml.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}
