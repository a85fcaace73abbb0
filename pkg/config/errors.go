package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrEmptyShell is returned when no shell is configured for the runner.
	ErrEmptyShell = errors.New("runner shell must not be empty")

	// ErrEmptyJournalPath is returned when the journal is enabled without a path.
	ErrEmptyJournalPath = errors.New("journal path must not be empty when journal is enabled")

	// ErrInvalidLogLevel is returned when log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level: must be debug, info, warn, or error")

	// ErrInvalidLogFormat is returned when log format is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrConfigNotFound is returned when the config file is not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidYAML is returned when the config file has invalid YAML syntax.
	ErrInvalidYAML = errors.New("invalid YAML syntax in config file")
)
