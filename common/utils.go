// Package common provides shared constants, types, and utilities
// used across vpnkeeper.
package common

import (
	"os"
	"path/filepath"
	"strings"
)

// NormalizeServerName folds a server name to its canonical form:
// trimmed and lowercase. All profile files and provider requests use
// the canonical name.
func NormalizeServerName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// RunningAsRoot reports whether the process has effective-root
// privilege. Every mutating lifecycle operation checks this before any
// other validation or side effect.
func RunningAsRoot() bool {
	return os.Geteuid() == 0
}

// GetConfigDir returns the path to the application configuration
// directory. It creates the directory if it doesn't exist.
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", WrapError(err, "failed to get home directory")
	}

	configDir := filepath.Join(homeDir, ".config", ConfigDirName)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", WrapError(err, "failed to create config directory")
	}

	return configDir, nil
}

// GetDataDir returns the path to the application data directory.
func GetDataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", WrapError(err, "failed to get home directory")
	}

	dataDir := filepath.Join(homeDir, ".local", "share", ConfigDirName)
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return "", WrapError(err, "failed to create data directory")
	}

	return dataDir, nil
}

// FileExists checks if a file exists at the given path.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
