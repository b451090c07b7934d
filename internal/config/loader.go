package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const (
	// ConfigDir is the default config directory name.
	ConfigDir = ".steward"
	// ConfigFile is the default config file name.
	ConfigFile = "config.json"
	// EnvPrefix is the prefix for environment variable overrides.
	EnvPrefix = "STEWARD"
)

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("STEWARD_CONFIG")); explicit != "" {
		return expandHome(explicit)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigDir, ConfigFile), nil
}

func expandHome(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// Load reads the config file (if present) and applies environment overrides.
// A missing file is not an error; defaults plus environment apply.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads a specific config file and applies environment overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// Defaults only.
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}

	if cfg.Paths.DBPath != "" {
		expanded, err := expandHome(cfg.Paths.DBPath)
		if err == nil {
			cfg.Paths.DBPath = expanded
		}
	}
	if cfg.Paths.DataDir != "" {
		expanded, err := expandHome(cfg.Paths.DataDir)
		if err == nil {
			cfg.Paths.DataDir = expanded
		}
	}

	return cfg, nil
}

// Validate checks settings that make the process unable to do any useful work.
// A missing provider key is fatal: the orchestrator must not start and then
// fail half-way through a batch.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Provider.APIKey) == "" {
		return fmt.Errorf("provider: missing API key (set STEWARD_ANTHROPIC_API_KEY)")
	}
	if c.Model.Strong == "" {
		return fmt.Errorf("model: strong model name is required")
	}
	return nil
}
