// Package config holds the run configuration shared by the CLI and an
// optional YAML config file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"layoutrefine/internal/logging"
	"layoutrefine/internal/refine"
	"layoutrefine/internal/writers"
)

// Config is the root configuration structure.
type Config struct {
	DeltaFiles []string `yaml:"delta"`   // delta inputs ("-" = stdin)
	Queries    []string `yaml:"queries"` // FASTA files holding the query fragments

	WindowSize int  `yaml:"window_size"` // cache window; capacity is 1000 windows
	Threads    int  `yaml:"threads"`     // files refined at once (0 = all CPUs)
	Validate   bool `yaml:"validate"`    // check every emitted record

	Output string `yaml:"output"` // delta | json | jsonl | tsv
	Header bool   `yaml:"header"` // tsv header row

	LogLevel      string `yaml:"log_level"`      // debug | info | warn | error
	MetricsListen string `yaml:"metrics_listen"` // e.g. ":9090"; empty disables
	Trace         bool   `yaml:"trace"`          // write per-file spans as JSON to stderr
}

// Default returns the configuration used when neither a file nor a flag
// sets a value.
func Default() Config {
	return Config{
		WindowSize: refine.DefaultWindowSize,
		Output:     writers.FormatDelta,
		Header:     true,
		LogLevel:   "info",
	}
}

// Load reads a YAML file over Default. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks a fully merged configuration.
func (c Config) Validate() error {
	if len(c.DeltaFiles) == 0 {
		return errors.New("at least one --delta file is required")
	}
	if c.WindowSize < 1 {
		return fmt.Errorf("window size must be ≥ 1, got %d", c.WindowSize)
	}
	if c.Threads < 0 {
		return errors.New("threads must be ≥ 0")
	}
	if !slices.Contains(writers.Formats(), c.Output) {
		return fmt.Errorf("invalid output %q (want one of %v)", c.Output, writers.Formats())
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}
