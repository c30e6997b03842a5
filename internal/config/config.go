// Package config loads eisen's settings from <home>/config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/eisen/internal/core/focus"
)

// FocusDefaults seeds a fresh focus timer. A timer already saved keeps its
// own configuration; change that with `eisen focus config`.
type FocusDefaults struct {
	FocusMinutes      float64 `yaml:"focus_minutes"`
	ShortBreakMinutes float64 `yaml:"short_break_minutes"`
	LongBreakMinutes  float64 `yaml:"long_break_minutes"`
	LongBreakEvery    int     `yaml:"long_break_every"`
	AutoTransition    bool    `yaml:"auto_transition"`
	LongBreaks        bool    `yaml:"long_breaks"`
}

// Config is the on-disk configuration plus the resolved home directory.
type Config struct {
	HomeDir           string        `yaml:"-"`
	DBPath            string        `yaml:"db_path"`
	LogLevel          string        `yaml:"log_level"`
	Timezone          string        `yaml:"timezone"`
	PersistDebounceMS int           `yaml:"persist_debounce_ms"`
	Focus             FocusDefaults `yaml:"focus"`

	// NeedsInit is set when no config file exists yet.
	NeedsInit bool `yaml:"-"`
}

func defaultConfig() Config {
	fc := focus.DefaultConfig()
	return Config{
		LogLevel:          "info",
		PersistDebounceMS: 300,
		Focus: FocusDefaults{
			FocusMinutes:      fc.FocusMinutes,
			ShortBreakMinutes: fc.ShortBreakMinutes,
			LongBreakMinutes:  fc.LongBreakMinutes,
			LongBreakEvery:    fc.LongBreakEvery,
			AutoTransition:    fc.AutoTransition,
			LongBreaks:        fc.LongBreaks,
		},
	}
}

// HomeDir returns $EISEN_HOME, or ~/.eisen.
func HomeDir() string {
	if override := os.Getenv("EISEN_HOME"); override != "" {
		return override
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, ".eisen")
}

// ConfigPath returns the config file location inside homeDir.
func ConfigPath(homeDir string) string {
	return filepath.Join(homeDir, "config.yaml")
}

// Load reads the configuration from HomeDir().
func Load() (Config, error) {
	return LoadFrom(HomeDir())
}

// LoadFrom reads the configuration from homeDir, applying defaults for
// anything the file leaves out. A missing file is not an error.
func LoadFrom(homeDir string) (Config, error) {
	cfg := defaultConfig()
	cfg.HomeDir = homeDir

	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		return cfg, fmt.Errorf("create eisen home: %w", err)
	}

	data, err := os.ReadFile(ConfigPath(homeDir))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config.yaml: %w", err)
		}
		cfg.NeedsInit = true
	} else if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config.yaml: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	normalize(&cfg)
	if _, err := cfg.Location(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("EISEN_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("EISEN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("EISEN_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
}

func normalize(cfg *Config) {
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.HomeDir, "eisen.db")
	} else if strings.HasPrefix(cfg.DBPath, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.DBPath = filepath.Join(home, cfg.DBPath[2:])
		}
	}
	if cfg.PersistDebounceMS < 0 {
		cfg.PersistDebounceMS = 0
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
}

// Location resolves Timezone. Empty means the local zone.
func (c Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Debounce returns the persistence quiet period.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.PersistDebounceMS) * time.Millisecond
}

// FocusConfig returns the timer defaults. Invalid values fall back to the
// built-in defaults the same way `focus config` edits do.
func (c Config) FocusConfig() focus.Config {
	f := c.Focus
	return focus.DefaultConfig().Merge(focus.ConfigPatch{
		FocusMinutes:      &f.FocusMinutes,
		ShortBreakMinutes: &f.ShortBreakMinutes,
		LongBreakMinutes:  &f.LongBreakMinutes,
		LongBreakEvery:    &f.LongBreakEvery,
		AutoTransition:    &f.AutoTransition,
		LongBreaks:        &f.LongBreaks,
	})
}

const configHeader = `# eisen configuration.
# db_path defaults to <home>/eisen.db; timezone defaults to the local zone.
# The focus block only seeds a new timer.
`

// WriteDefault writes a default config.yaml into homeDir unless one exists.
// It reports whether a file was created.
func WriteDefault(homeDir string) (bool, error) {
	path := ConfigPath(homeDir)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		return false, fmt.Errorf("create eisen home: %w", err)
	}

	data, err := yaml.Marshal(defaultConfig())
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(configHeader), data...), 0o644); err != nil {
		return false, fmt.Errorf("write config.yaml: %w", err)
	}
	return true, nil
}
