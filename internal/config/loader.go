package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const (
	// ConfigDir is the default config directory name.
	ConfigDir = ".knodex"
	// ConfigFile is the default config file name.
	ConfigFile = "config.json"
)

// ConfigPath returns the path to the config file. KNODEX_CONFIG overrides
// the location, KNODEX_HOME relocates the base directory.
func ConfigPath() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("KNODEX_CONFIG")); explicit != "" {
		return expandHome(explicit)
	}
	home, err := resolveHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigDir, ConfigFile), nil
}

func resolveHomeDir() (string, error) {
	if h := strings.TrimSpace(os.Getenv("KNODEX_HOME")); h != "" {
		return expandHome(h)
	}
	return os.UserHomeDir()
}

func expandHome(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, p[1:]), nil
}

// ExpandPath resolves a leading ~ against the user's home directory.
// Used for configured filesystem paths like storage.path.
func ExpandPath(p string) string {
	expanded, err := expandHome(p)
	if err != nil {
		return p
	}
	return expanded
}

// Load loads the configuration from file and environment variables.
// Priority: environment > file > defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// Load process env vars from ~/.knodex/env (and fallbacks) first.
	LoadEnvFileCandidates()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil // Use defaults if we can't find config path
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	// If file doesn't exist, continue with defaults

	// Override with environment variables for each group
	envconfig.Process("KNODEX_STORAGE", &cfg.Storage)
	envconfig.Process("KNODEX_EMBEDDING", &cfg.Embedding)
	envconfig.Process("KNODEX_RETRIEVAL", &cfg.Retrieval)
	envconfig.Process("KNODEX_INDEXING", &cfg.Indexing)
	envconfig.Process("KNODEX_WATCH", &cfg.Watch)

	return cfg, nil
}

// Save writes cfg to the config path, creating the directory if needed.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
