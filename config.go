package peg

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RunConfig is the YAML sidecar shape for `pegrun`: grammar/input paths
// and run options that would otherwise have to be repeated on every
// invocation's command line.
type RunConfig struct {
	Grammar   string `yaml:"grammar"`
	Input     string `yaml:"input"`
	Rule      string `yaml:"rule"`
	TimeoutMS int    `yaml:"timeout_ms"`
	Trace     bool   `yaml:"trace"`
}

// LoadRunConfig reads and parses a YAML sidecar file. A missing or
// malformed file is the caller's problem to report, not a zero-value
// fallback, since a typo'd path should fail loudly rather than
// silently running with defaults.
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run config: %w", err)
	}
	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing run config: %w", err)
	}
	return &cfg, nil
}
