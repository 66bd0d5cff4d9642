package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults resolves the paths pullsnap uses outside the backup root:
// where the config file lives and where logs and the journal go by default.
// Environment variables override the per-user locations:
//   - PULLSNAP_CONFIG_PATH: config file location (default: ~/.config/pullsnap.toml)
//   - PULLSNAP_HOME: base directory for pullsnap data (default: ~/.local/share/pullsnap)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking PULLSNAP_CONFIG_PATH env var first,
// then falling back to the default ~/.config/pullsnap.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("PULLSNAP_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "pullsnap.toml"), nil
}

// getBaseDir returns the base directory for pullsnap data, checking PULLSNAP_HOME env var first,
// then falling back to the XDG default ~/.local/share/pullsnap.
func getBaseDir() (string, error) {
	if path := os.Getenv("PULLSNAP_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "pullsnap"), nil
}
