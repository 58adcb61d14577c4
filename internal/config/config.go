package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"paysight/pkg/models"
	"gopkg.in/yaml.v3"
)

// EnvConfigFile overrides the config file location
const EnvConfigFile = "PAYSIGHT_CONFIG"

func GetConfigPath() string {
	if configPath := os.Getenv(EnvConfigFile); configPath != "" {
		return filepath.Dir(configPath)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".paysight")
}

func GetConfigFile() string {
	if configFile := os.Getenv(EnvConfigFile); configFile != "" {
		cleaned, err := cleanPath(configFile)
		if err != nil {
			// Fall back to default if invalid
			return filepath.Join(GetConfigPath(), "config.yaml")
		}
		return cleaned
	}
	return filepath.Join(GetConfigPath(), "config.yaml")
}

// Load reads the config file. A missing file yields the defaults.
func Load() (*models.Config, error) {
	return LoadFile(GetConfigFile())
}

// LoadFile reads a config file at an explicit path
func LoadFile(path string) (*models.Config, error) {
	cleanedPath, err := cleanPath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid config file path: %w", err)
	}

	config := &models.Config{}
	data, err := os.ReadFile(cleanedPath) // #nosec G304 - path is validated
	if os.IsNotExist(err) {
		ApplyDefaults(config)
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	ApplyDefaults(config)
	return config, nil
}

func Save(config *models.Config) error {
	if err := os.MkdirAll(GetConfigPath(), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(GetConfigFile(), data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func Exists() bool {
	_, err := os.Stat(GetConfigFile())
	return err == nil
}

// ApplyDefaults fills the fields a fresh install leaves empty
func ApplyDefaults(config *models.Config) {
	if config.Warehouse.Driver == "" {
		config.Warehouse.Driver = "mysql"
	}
	if config.Warehouse.Timeout == "" {
		config.Warehouse.Timeout = "30s"
	}
	if config.Cache.MaxEntries == 0 {
		config.Cache.MaxEntries = 128
	}
	if config.Log.Level == "" {
		config.Log.Level = "warn"
	}
	if config.Output.Format == "" {
		config.Output.Format = "table"
	}
}

// cleanPath rejects traversal sequences and makes the path absolute
func cleanPath(path string) (string, error) {
	cleaned := filepath.Clean(path)
	if strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid path: contains directory traversal")
	}
	if !filepath.IsAbs(cleaned) {
		abs, err := filepath.Abs(cleaned)
		if err != nil {
			return "", fmt.Errorf("failed to resolve absolute path: %w", err)
		}
		cleaned = abs
	}
	return cleaned, nil
}
