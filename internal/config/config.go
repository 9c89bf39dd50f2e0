// ABOUTME: Configuration management for strontium with YAML config loading.
// ABOUTME: Persists the server URL, session token, and remembered email.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultServerURL is the board API endpoint used when none is configured.
const DefaultServerURL = "http://localhost:8000"

// Config stores strontium configuration loaded from ~/.config/strontium/config.yaml.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Session SessionConfig `yaml:"session"`
}

// ServerConfig holds the remote board API settings.
type ServerConfig struct {
	URL string `yaml:"url"`
}

// SessionConfig is the client-visible persisted credential state: the bearer
// token for this device, the remembered login email, and the last-fetched
// API key. Token is cleared on logout and on session invalidation.
type SessionConfig struct {
	Token  string `yaml:"token,omitempty"`
	Email  string `yaml:"email,omitempty"`
	APIKey string `yaml:"api_key,omitempty"`
}

// ServerURL returns the configured API URL, falling back to the default,
// with trailing slashes trimmed.
func (c *Config) ServerURL() string {
	url := c.Server.URL
	if url == "" {
		url = DefaultServerURL
	}
	return strings.TrimRight(url, "/")
}

// GetConfigPath returns the config file path.
func GetConfigPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "strontium", "config.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// Load reads config from disk. Returns default config if file doesn't exist.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to disk. The file holds a bearer token, so it is
// created 0600.
func (c *Config) Save() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
