package config

import (
	"os"
	"path/filepath"
)

// defaultJournalPath returns the default trigger journal location:
// ~/.config/autorun/journal.db, falling back to the current directory when
// the home directory is unavailable.
func defaultJournalPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./journal.db"
	}

	return filepath.Join(homeDir, ".config", "autorun", "journal.db")
}

// defaultConfigPath returns ~/.config/autorun/config.yaml.
func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}

	return filepath.Join(homeDir, ".config", "autorun", "config.yaml")
}
