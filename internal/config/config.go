// Package config loads nsh's small optional rc file. Lookup tries a short
// list of default filenames, first match wins, and a missing file is not
// an error -- the same shape the teacher project's spec loader uses for
// its own config discovery.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultFilenames is tried in order, relative to the search directories
// passed to Load. The first one that exists wins.
var DefaultFilenames = []string{
	".nshrc.yaml",
	".nshrc.yml",
	"nshrc.yaml",
}

// Config holds the handful of ambient settings nsh's rc file may override.
// None of these enable any Non-goal feature: they only adjust cosmetics and
// in-memory bounds.
type Config struct {
	Prompt        string `yaml:"prompt"`
	HistorySize   int    `yaml:"history_size"`
	DisableBanner bool   `yaml:"disable_banner"`
}

// Default returns the configuration nsh runs with when no rc file is found.
func Default() *Config {
	return &Config{
		Prompt:      "> ",
		HistorySize: 500,
	}
}

// Load searches, in order, the current working directory and the user's
// home directory for any of DefaultFilenames, and unmarshals the first one
// found over a copy of Default(). If nothing is found, Default() is
// returned unchanged and no error is reported.
func Load(explicitPath string) (*Config, error) {
	cfg := Default()

	if explicitPath != "" {
		return loadFile(explicitPath, cfg)
	}

	for _, dir := range searchDirs() {
		for _, name := range DefaultFilenames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			return loadFile(path, cfg)
		}
	}
	return cfg, nil
}

func searchDirs() []string {
	dirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home)
	}
	return dirs
}

func loadFile(path string, into *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, into); err != nil {
		return nil, err
	}
	return into, nil
}
