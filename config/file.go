package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigExists is returned when writing a default config over an existing
// file without force.
var ErrConfigExists = errors.New("config file already exists")

const defaultConfigHeader = `# newspick configuration
#
# search.provider: serpapi or google_news_rss
# sheet.type: google, sqlite, postgres or none
`

// ConfigFilePath returns the config file location: $NEWSPICK_CONFIG when set,
// otherwise ~/.newspick/config.yaml.
func ConfigFilePath() (string, error) {
	if path := os.Getenv("NEWSPICK_CONFIG"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".newspick", "config.yaml"), nil
}

// LoadConfigFile loads the config file at path over the defaults. Returns nil
// if the file doesn't exist (not an error). Returns error if the file exists
// but cannot be parsed.
func LoadConfigFile(path string) (*Config, error) {
	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil // File doesn't exist -- not an error
	}

	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML over the defaults so omitted keys keep their values
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Load builds the effective configuration: defaults, then the config file,
// then environment overrides. The result is validated.
func Load() (*Config, error) {
	path, err := ConfigFilePath()
	if err != nil {
		return nil, err
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = Default()
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}

	return cfg, nil
}

// ApplyEnv overrides file settings with environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("NEWSPICK_API_KEY"); v != "" {
		c.Search.APIKey = v
	}
	if v := os.Getenv("NEWSPICK_SHEET_TYPE"); v != "" {
		c.Sheet.Type = v
	}
	if v := os.Getenv("NEWSPICK_SHEET_DSN"); v != "" {
		c.Sheet.DSN = v
	}
}

// WriteDefaultConfigFile writes the default configuration to path. An
// existing file is only replaced when force is set.
func WriteDefaultConfigFile(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	// Create the parent directory (0700: owner-only access)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	content := append([]byte(defaultConfigHeader), data...)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
