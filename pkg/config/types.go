// Package config provides configuration management for autorun.
//
// The watch targets and the command come from the command line; the config
// file covers ambient settings only. Configuration is merged with the
// following precedence:
//  1. Environment variables
//  2. Configuration file
//  3. Default values
package config

// Config represents the complete application configuration.
//
// Invariants:
// - Logging.Level must be one of debug, info, warn, error
// - Logging.Format must be text or json
// - Runner.Shell must be non-empty
// - Journal.Path must be non-empty when Journal.Enabled is true.
type Config struct {
	// Runner settings for the triggered command
	Runner RunnerConfig `yaml:"runner"`

	// Journal settings for the trigger journal
	Journal JournalConfig `yaml:"journal"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// RunnerConfig controls how the configured command is executed.
type RunnerConfig struct {
	// Shell used to interpret the command string
	Shell string `yaml:"shell"`

	// Clear the screen before each run (skipped when stdout is not a terminal)
	ClearScreen bool `yaml:"clear_screen"`

	// Run the command without waiting for it; default is synchronous,
	// one run per event record
	Concurrent bool `yaml:"concurrent"`
}

// JournalConfig controls the on-disk trigger journal.
type JournalConfig struct {
	// Record every trigger in the journal
	Enabled bool `yaml:"enabled"`

	// Path to the journal database file
	Path string `yaml:"path"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level"`

	// Log output destination (stdout, stderr, file path)
	Output string `yaml:"output"`

	// Log format (text, json)
	Format string `yaml:"format"`
}

// Validate checks whether the configuration satisfies all invariants.
func (c *Config) Validate() error {
	if c.Runner.Shell == "" {
		return ErrEmptyShell
	}

	if c.Journal.Enabled && c.Journal.Path == "" {
		return ErrEmptyJournalPath
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validFormats[c.Logging.Format] {
		return ErrInvalidLogFormat
	}

	return nil
}

// Default returns a configuration with sensible default values.
func Default() *Config {
	return &Config{
		Runner: RunnerConfig{
			Shell:       "/bin/sh",
			ClearScreen: true,
			Concurrent:  false,
		},
		Journal: JournalConfig{
			Enabled: false,
			Path:    defaultJournalPath(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			Format: "text",
		},
	}
}
