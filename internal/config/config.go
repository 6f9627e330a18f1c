package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const (
	appName = "calhours"

	defaultTimezone               = "UTC"
	defaultEncoding               = "iso-8859-1"
	defaultFormat                 = "text"
	defaultMaxOccurrencesPerEvent = 5000
)

// Config holds the defaults a report runs with. Every field can be
// overridden on the command line.
type Config struct {
	// Timezone is the IANA zone date-only boundaries are interpreted in
	// (e.g. "Europe/Berlin").
	Timezone string `yaml:"timezone"`

	// AllDay counts all-day events.
	AllDay bool `yaml:"allday"`

	// Encoding is the charset calendar files are read with.
	Encoding string `yaml:"encoding"`

	// Rules are /pattern/replacement/flags strings tried after any given
	// on the command line.
	Rules []string `yaml:"rules"`

	// ExpandRecurring counts every occurrence of recurring events instead
	// of each VEVENT once.
	ExpandRecurring bool `yaml:"expand_recurring"`

	// MaxOccurrencesPerEvent caps recurrence expansion per event.
	MaxOccurrencesPerEvent int `yaml:"max_occurrences_per_event"`

	// CacheDir stores copies of remote calendars for conditional requests.
	CacheDir string `yaml:"cache_dir"`

	// Format is the output format: text, table, json or yaml.
	Format string `yaml:"format"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timezone:               defaultTimezone,
		Encoding:               defaultEncoding,
		Rules:                  []string{},
		MaxOccurrencesPerEvent: defaultMaxOccurrencesPerEvent,
		CacheDir:               DefaultCacheDir(),
		Format:                 defaultFormat,
	}
}

// Normalize fills in missing/zero values so that partially-filled files
// still behave correctly.
func (c *Config) Normalize() {
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.Encoding == "" {
		c.Encoding = defaultEncoding
	}
	if c.Rules == nil {
		c.Rules = []string{}
	}
	if c.MaxOccurrencesPerEvent <= 0 {
		c.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}
	if c.CacheDir == "" {
		c.CacheDir = DefaultCacheDir()
	}
	if c.Format == "" {
		c.Format = defaultFormat
	}
}

// DefaultPath is $XDG_CONFIG_HOME/calhours/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// DefaultCacheDir is $XDG_CACHE_HOME/calhours/ics-cache.
func DefaultCacheDir() string {
	return filepath.Join(xdg.CacheHome, appName, "ics-cache")
}

// Load reads the YAML file at path.
//
// Behavior:
//   - path empty: the default path is tried; if it does not exist the
//     defaults are returned
//   - path given but missing: error
//   - otherwise: unmarshal over the defaults and normalize
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()

	return cfg, nil
}
