// Package config loads the atlas-prep configuration file.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/atlas-prep-mcp/internal/atlas"
)

// Config represents the application configuration
type Config struct {
	// RootDir is stripped from the front of source paths to form image names.
	RootDir string `yaml:"root_dir"`

	Scale          float64 `yaml:"scale"`
	AlphaThreshold int     `yaml:"alpha_threshold"`

	// StripWhitespaceX (strip_whitespace_x) trims rows, StripWhitespaceY
	// (strip_whitespace_y) trims columns.
	StripWhitespaceX bool `yaml:"strip_whitespace_x"`
	StripWhitespaceY bool `yaml:"strip_whitespace_y"`

	IgnoreBlankImages bool `yaml:"ignore_blank_images"`
	Alias             bool `yaml:"alias"`
	UseIndexes        bool `yaml:"use_indexes"`
	LimitMemory       bool `yaml:"limit_memory"`

	// Workers is the size of the decode pool for directory batches.
	Workers int `yaml:"workers"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	s := atlas.DefaultSettings()
	return &Config{
		Scale:             1,
		AlphaThreshold:    s.AlphaThreshold,
		StripWhitespaceX:  s.StripWhitespaceX,
		StripWhitespaceY:  s.StripWhitespaceY,
		IgnoreBlankImages: s.IgnoreBlankImages,
		Alias:             s.Alias,
		UseIndexes:        s.UseIndexes,
		LimitMemory:       s.LimitMemory,
		Workers:           runtime.GOMAXPROCS(0),
	}
}

// Load reads and parses the configuration file. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks that every value is usable
func (c *Config) Validate() error {
	if c.AlphaThreshold < 0 || c.AlphaThreshold > 255 {
		return fmt.Errorf("alpha_threshold must be within 0-255, got %d", c.AlphaThreshold)
	}
	if !(c.Scale > 0) {
		return fmt.Errorf("scale must be > 0, got %v", c.Scale)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// Settings returns the pipeline settings described by c.
func (c *Config) Settings() atlas.Settings {
	return atlas.Settings{
		AlphaThreshold:    c.AlphaThreshold,
		StripWhitespaceX:  c.StripWhitespaceX,
		StripWhitespaceY:  c.StripWhitespaceY,
		IgnoreBlankImages: c.IgnoreBlankImages,
		Alias:             c.Alias,
		UseIndexes:        c.UseIndexes,
		LimitMemory:       c.LimitMemory,
	}
}

// NewIngestor builds an ingestor from c.
func (c *Config) NewIngestor(opts ...atlas.Option) (*atlas.Ingestor, error) {
	opts = append([]atlas.Option{atlas.WithScale(c.Scale)}, opts...)
	return atlas.New(c.RootDir, c.Settings(), opts...)
}

// FromEnv loads the file named by the ATLAS_PREP_CONFIG environment variable,
// or returns Default when it is unset.
func FromEnv() (*Config, error) {
	path := os.Getenv("ATLAS_PREP_CONFIG")
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}
