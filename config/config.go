// Package config loads interpreter configuration from standard
// locations. Configuration covers the break-on-failure policy, the
// operator endpoint, the hook mirror and the episode store; plan
// semantics are never configured, only observed behavior around them.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/planfall/plankit/failure"
)

// Config is the root configuration.
type Config struct {
	Policy   PolicyConfig   `toml:"policy"`
	Operator OperatorConfig `toml:"operator"`
	Hooks    HooksConfig    `toml:"hooks"`
	Episodes EpisodeConfig  `toml:"episodes"`
	Trace    TraceConfig    `toml:"trace"`
}

// PolicyConfig controls interactive breaks.
type PolicyConfig struct {
	// BreakOn lists failure kind names that pause all scheduling for
	// interactive review when raised. Empty means never break.
	BreakOn []string `toml:"break_on"`

	// DebugOnRuntimeErrors pauses interactively when a non-failure
	// error escapes a task.
	DebugOnRuntimeErrors bool `toml:"debug_on_runtime_errors"`
}

// OperatorConfig selects the review collaborator.
type OperatorConfig struct {
	// Mode is "auto", "stdio" or "websocket". Default: "auto".
	Mode string `toml:"mode"`

	// Decision is the fixed decision for "auto" mode:
	// "continue" (default) or "abort".
	Decision string `toml:"decision"`

	// Addr is the listen address for "websocket" mode.
	Addr string `toml:"addr"`
}

// HooksConfig controls the NATS hook mirror.
type HooksConfig struct {
	// NATSURL enables the mirror when non-empty.
	NATSURL string `toml:"nats_url"`

	// SubjectPrefix overrides the default "plankit.hooks".
	SubjectPrefix string `toml:"subject_prefix"`
}

// EpisodeConfig selects the episode store.
type EpisodeConfig struct {
	// Store is "memory" (default) or "bleve".
	Store string `toml:"store"`

	// Path is the index directory for "bleve".
	Path string `toml:"path"`
}

// TraceConfig selects the trace event sink.
type TraceConfig struct {
	// Sink is "noop" (default), "console", "file" or "otel".
	Sink string `toml:"sink"`

	// Target is the file path for "file".
	Target string `toml:"target"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Operator: OperatorConfig{Mode: "auto", Decision: "continue"},
		Episodes: EpisodeConfig{Store: "memory"},
		Trace:    TraceConfig{Sink: "noop"},
	}
}

// StandardPaths returns the configuration file locations in order of
// priority.
func StandardPaths() []string {
	paths := []string{"plankit.toml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "plankit", "config.toml"))
		paths = append(paths, filepath.Join(home, ".plankit", "config.toml"))
	}

	return paths
}

// Load loads configuration from the first available standard
// location. A missing file is not an error: defaults are returned
// with an empty path.
func Load() (*Config, string, error) {
	for _, path := range StandardPaths() {
		if _, err := os.Stat(path); err == nil {
			cfg, err := LoadFile(path)
			if err != nil {
				return nil, path, err
			}
			return cfg, path, nil
		}
	}
	cfg := Default()
	return &cfg, "", nil
}

// LoadFile loads configuration from a specific file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks enum fields and kind names.
func (c *Config) Validate() error {
	switch c.Operator.Mode {
	case "", "auto", "stdio", "websocket":
	default:
		return fmt.Errorf("unknown operator mode: %s", c.Operator.Mode)
	}
	switch c.Operator.Decision {
	case "", "continue", "abort":
	default:
		return fmt.Errorf("unknown operator decision: %s", c.Operator.Decision)
	}
	switch c.Episodes.Store {
	case "", "memory", "bleve":
	default:
		return fmt.Errorf("unknown episode store: %s", c.Episodes.Store)
	}
	if c.Episodes.Store == "bleve" && c.Episodes.Path == "" {
		return fmt.Errorf("episode store bleve requires a path")
	}
	switch c.Trace.Sink {
	case "", "noop", "console", "file", "otel":
	default:
		return fmt.Errorf("unknown trace sink: %s", c.Trace.Sink)
	}
	if _, err := c.BreakOnKinds(); err != nil {
		return err
	}
	return nil
}

// BreakOnKinds resolves the configured kind names. Resolution happens
// after all plan packages registered their kinds, so call this at
// runtime construction, not init.
func (c *Config) BreakOnKinds() ([]*failure.Kind, error) {
	kinds := make([]*failure.Kind, 0, len(c.Policy.BreakOn))
	for _, name := range c.Policy.BreakOn {
		kind, ok := failure.LookupKind(name)
		if !ok {
			return nil, fmt.Errorf("unknown failure kind in break_on: %s", name)
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}
