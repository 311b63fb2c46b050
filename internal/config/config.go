// Package config loads celrun's ambient runtime settings: step limit,
// default timezone, and whether to colorize disassembly/AST output.
// Ground: rashadism-openchoreo's koanf-based layered config loader
// (file defaults overridden by environment variables), the closest
// thematic match in the retrieval pack since it itself embeds
// google/cel-go.
package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is celrun's resolved runtime configuration (spec §7 ambient
// config surface).
type Config struct {
	StepLimit       int    `koanf:"step_limit"`
	DefaultTimezone string `koanf:"default_timezone"`
	Color           bool   `koanf:"color"`
}

func defaults() map[string]any {
	return map[string]any{
		"step_limit":       10_000_000,
		"default_timezone": "UTC",
		"color":            true,
	}
}

// Load resolves a Config from, in increasing priority: built-in
// defaults, an optional YAML file at path (skipped silently if path
// is empty or the file doesn't exist), then CELRUN_*-prefixed
// environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, err
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !isNotExist(err) {
				return nil, err
			}
		}
	}

	if err := k.Load(env.Provider("CELRUN_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "CELRUN_"))
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func isNotExist(err error) bool {
	return strings.Contains(err.Error(), "no such file") || strings.Contains(err.Error(), "cannot find")
}
