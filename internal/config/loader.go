package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, an optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if GPXFETCH_CONFIG is set
//  3. env (prefix GPXFETCH_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("GPXFETCH_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: GPXFETCH_EMAIL, GPXFETCH_OUTPUT_DIR, ...
	// Map env keys like GPXFETCH_OUTPUT_DIR -> output_dir (flat keys).
	// Underscores are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("GPXFETCH_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "gpxfetch_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("%w: output_dir must not be empty", ErrInvalidConfig)
	}
	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("%w: database_path must not be empty", ErrInvalidConfig)
	}

	return &cfg, nil
}
