// Package config loads the run configuration the batch tools point at
// with -c: checkpoint paths, statistics output paths, and the dataset
// layout. Each checkpoint additionally carries its own architecture
// description in a sibling config.yml, loaded separately by
// pkg/checkpoint.
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/Utkarsh4430/ARER/pkg/checkpoint"
)

// Run is the top-level run config.
type Run struct {
	// Analyzer is the checkpoint a statistics pass loads.
	Analyzer string `yaml:"analyzer"`

	// StatsSpeech and StatsRIR are where the per-branch (2, C) statistics
	// are written.
	StatsSpeech string `yaml:"stats_speech"`
	StatsRIR    string `yaml:"stats_rir"`

	// SampleRate is the fallback processing rate when a checkpoint's own
	// config does not name one. Zero means "accept the input rate".
	SampleRate int `yaml:"sample_rate"`

	Data checkpoint.DataConfig `yaml:"data"`
}

// Load reads and validates the run config at path.
func Load(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run config: %w", err)
	}
	var cfg Run
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the fields a run cannot start without.
func (c *Run) Validate() error {
	if c.Analyzer == "" {
		return fmt.Errorf("analyzer checkpoint path is required")
	}
	if c.StatsSpeech == "" || c.StatsRIR == "" {
		return fmt.Errorf("stats_speech and stats_rir output paths are required")
	}
	if c.Data.ReverbPath == "" {
		return fmt.Errorf("data.reverb_path is required")
	}
	return nil
}
