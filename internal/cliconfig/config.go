// Package cliconfig loads the optional p1ctl configuration file.
package cliconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sisahap1/fusion-engine-client/messages"
)

// LogConfig selects the CLI logging sink and verbosity.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Config is the p1ctl configuration file schema.
type Config struct {
	Log LogConfig `yaml:"log"`
	// TypeAliases maps extra --types spellings to canonical message
	// type names, e.g. "gnss: gnss_info".
	TypeAliases map[string]string `yaml:"type_aliases"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{Log: LogConfig{Level: "info"}}
}

// Load reads the configuration at path. An empty path or a missing
// file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	return cfg, nil
}

// ResolveTypes maps user-supplied type names, including configured
// aliases, to message types.
func (c Config) ResolveTypes(names []string) ([]messages.MessageType, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]messages.MessageType, 0, len(names))
	for _, name := range names {
		if canonical, ok := c.TypeAliases[name]; ok {
			name = canonical
		}
		t, err := messages.ParseMessageType(name)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
