package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/gridchronics/core/dispatch"
	"github.com/kilianp07/gridchronics/core/metrics"
	"github.com/kilianp07/gridchronics/core/validate"
)

// Config is the full configuration of a chronic generation run.
type Config struct {
	// Network is the path of the network model file (JSON).
	Network string `json:"network"`
	// Profiles is a glob of per-scenario profile CSV files.
	Profiles string `json:"profiles"`
	// Output is the directory receiving exported chronics.
	Output string `json:"output"`
	// Parallelism bounds concurrent scenario runs.
	Parallelism int `json:"parallelism"`

	Dispatch   dispatch.Config `json:"dispatch"`
	Validation validate.Config `json:"validation"`
	Metrics    metrics.Config  `json:"metrics"`
}

// Load reads the configuration file and applies GC_-prefixed environment
// overrides, with keys separated by double underscores.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// The callback rewrites GC_DISPATCH__MODE to dispatch.mode; the
	// provider delimiter must match the rewritten form so the key is
	// unflattened into the nested map.
	if err := k.Load(env.Provider("GC_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "gc_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies sane defaults to every section.
func (c *Config) SetDefaults() {
	if c.Output == "" {
		c.Output = "chronics"
	}
	if c.Parallelism <= 0 {
		c.Parallelism = 1
	}
	c.Dispatch.SetDefaults()
	c.Validation.SetDefaults()
	if c.Validation.LossFactor == 0 {
		c.Validation.LossFactor = c.Dispatch.Losses()
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Network == "" {
		return fmt.Errorf("network is required")
	}
	if c.Profiles == "" {
		return fmt.Errorf("profiles is required")
	}
	return c.Dispatch.Validate()
}
