package app

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds everything an App run needs. Values are layered: built-in
// defaults, then an optional YAML config file, then PARAMDOC_* environment
// variables, then explicit command-line flags.
type Config struct {
	// DocPath is the snapshot to load. Empty means start from an empty
	// document.
	DocPath string `koanf:"doc"`

	// OutPath, when set, receives the snapshot written after a successful
	// recompute.
	OutPath string `koanf:"out"`

	// Label names a document created from scratch.
	Label string `koanf:"label"`

	// Kernel selects the geometry backend: "sdfx" or "stub".
	Kernel string `koanf:"kernel"`

	LogFormat string `koanf:"log_format"`
	LogLevel  string `koanf:"log_level"`

	// Edits are "Object.Property=value" assignments applied inside one
	// transaction before the recompute.
	Edits []string `koanf:"set"`

	// Formulas are "Object.Property=formula" expression bindings applied
	// alongside the edits.
	Formulas []string `koanf:"expr"`
}

// defaults is the base configuration layer.
var defaults = map[string]any{
	"kernel":     "sdfx",
	"log_format": "text",
	"log_level":  "info",
}

// NewConfig resolves the final configuration. configFile may be empty;
// overrides holds flag values the user set explicitly and wins over every
// other layer.
func NewConfig(configFile string, overrides map[string]any) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", configFile, err)
		}
	}

	envProvider := env.Provider("PARAMDOC_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "PARAMDOC_"))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("applying flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Kernel {
	case "sdfx", "stub":
	default:
		return fmt.Errorf("invalid kernel %q: must be 'sdfx' or 'stub'", c.Kernel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q: must be 'text' or 'json'", c.LogFormat)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q: must be 'debug', 'info', 'warn', or 'error'", c.LogLevel)
	}
	return nil
}
