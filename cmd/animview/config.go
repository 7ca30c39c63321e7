package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the viewer configuration file.
type Config struct {
	// Archive is the path to the animation archive (zip/jar).
	Archive string `yaml:"archive"`
	// Translations is an optional path to the localization archive.
	Translations string `yaml:"translations,omitempty"`
	// Scale multiplies the animation's own scale factor.
	Scale float64 `yaml:"scale,omitempty"`
	// Watch reloads the archive when it changes on disk.
	Watch bool `yaml:"watch,omitempty"`

	Window struct {
		Width  int `yaml:"width,omitempty"`
		Height int `yaml:"height,omitempty"`
	} `yaml:"window,omitempty"`
}

// LoadConfig reads a yaml config file. A missing path returns defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{Scale: 2}
	cfg.Window.Width = 960
	cfg.Window.Height = 720
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 2
	}
	if cfg.Window.Width <= 0 {
		cfg.Window.Width = 960
	}
	if cfg.Window.Height <= 0 {
		cfg.Window.Height = 720
	}
	return cfg, nil
}
