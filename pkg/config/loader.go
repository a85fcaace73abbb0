package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with the usual precedence: defaults, then the
// config file (explicit path, or the first of ./autorun.yaml and
// ~/.config/autorun/config.yaml that exists), then environment variables.
//
// An explicitly given path that cannot be loaded is an error; a missing
// discovered file silently falls back to defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	path := configPath
	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		fileCfg, err := loadFromFile(path)
		if err != nil {
			if configPath != "" {
				return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
			}
		} else {
			cfg = merge(cfg, fileCfg)
		}
	}

	cfg = applyEnvVars(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile reads and parses one YAML config file.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return &cfg, nil
}

// findConfigFile searches the standard locations, returning "" when no
// config file exists.
func findConfigFile() string {
	candidates := []string{
		"./autorun.yaml",
		defaultConfigPath(),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// merge overlays non-zero file values onto the defaults. Booleans always
// take the file value, since false cannot be told apart from unset.
func merge(base, override *Config) *Config {
	result := *base

	if override.Runner.Shell != "" {
		result.Runner.Shell = override.Runner.Shell
	}
	result.Runner.ClearScreen = override.Runner.ClearScreen
	result.Runner.Concurrent = override.Runner.Concurrent

	result.Journal.Enabled = override.Journal.Enabled
	if override.Journal.Path != "" {
		result.Journal.Path = override.Journal.Path
	}

	if override.Logging.Level != "" {
		result.Logging.Level = override.Logging.Level
	}
	if override.Logging.Output != "" {
		result.Logging.Output = override.Logging.Output
	}
	if override.Logging.Format != "" {
		result.Logging.Format = override.Logging.Format
	}

	return &result
}

// applyEnvVars applies environment variable overrides.
//
// Supported variables:
//   - AUTORUN_SHELL: shell used to run the command
//   - AUTORUN_JOURNAL: journal database path (also enables the journal)
//   - AUTORUN_LOG_LEVEL: log level
func applyEnvVars(cfg *Config) *Config {
	result := *cfg

	if shell := os.Getenv("AUTORUN_SHELL"); shell != "" {
		result.Runner.Shell = shell
	}

	if journalPath := os.Getenv("AUTORUN_JOURNAL"); journalPath != "" {
		result.Journal.Enabled = true
		result.Journal.Path = journalPath
	}

	if logLevel := os.Getenv("AUTORUN_LOG_LEVEL"); logLevel != "" {
		result.Logging.Level = strings.ToLower(logLevel)
	}

	return &result
}
