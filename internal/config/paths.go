package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv overrides the canopy home directory.
const HomeEnv = "CANOPY_HOME"

// HomeDir returns $CANOPY_HOME, or ~/.canopy when unset.
func HomeDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".canopy"), nil
}

// ConfigPath returns the config file location.
func ConfigPath() (string, error) {
	return homeFile("config.json")
}

// StatePath returns the state file location.
func StatePath() (string, error) {
	return homeFile("state.json")
}

// LogPath returns the log file location.
func LogPath() (string, error) {
	return homeFile("canopy.log")
}

func homeFile(name string) (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
