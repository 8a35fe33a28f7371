// Package config defines process configuration and its loading.
package config

import (
	"os"
	"path/filepath"
)

// Config contains everything the process needs to run. Credentials usually
// come from env vars or a .env file, the rest has workable defaults.
type Config struct {
	// Email and Password are the Garmin Connect credentials. Only needed
	// when no stored token is usable.
	Email    string `koanf:"email"`
	Password string `koanf:"password"`

	// BaseURL is the Garmin Connect API root.
	BaseURL string `koanf:"base_url"`

	// TokenDir is where authentication tokens are persisted.
	TokenDir string `koanf:"token_dir"`

	// OutputDir receives the downloaded GPX files.
	OutputDir string `koanf:"output_dir"`

	// DatabasePath is the sqlite download history file.
	DatabasePath string `koanf:"database_path"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// SkipTypes are activity types never downloaded.
	SkipTypes []string `koanf:"skip_types"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		BaseURL:      "https://connect.garmin.com",
		TokenDir:     defaultTokenDir(),
		OutputDir:    "./gpx_files",
		DatabasePath: "gpxfetch.db",
		LogLevel:     "info",
		SkipTypes:    []string{"breathwork"},
	}
}

func defaultTokenDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gpxfetch"
	}
	return filepath.Join(home, ".gpxfetch")
}
