package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultCredentialsFile is the default credentials file name.
const DefaultCredentialsFile = ".raventrace"

// ErrCredentialsNotFound is returned when the credentials file does not exist.
var ErrCredentialsNotFound = errors.New("credentials file not found")

// LoadCredentials loads provider API keys from a YAML file.
// If the file does not exist, it returns ErrCredentialsNotFound. Callers
// should treat that as fatal only when the path was explicitly specified
// by the user; a missing discovered file just means no keys.
func LoadCredentials(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided credentials path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCredentialsNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	if cf.APIKeys == nil {
		cf.APIKeys = make(map[string]string)
	}

	return &cf, nil
}

// FindCredentialsFile searches for the credentials file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .raventrace in the current directory
// 3. Look for .raventrace in the user's home directory
//
// Returns the path if found, or empty string if not found.
func FindCredentialsFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultCredentialsFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultCredentialsFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
