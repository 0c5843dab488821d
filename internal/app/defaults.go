package app

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath overrides the config file location (default ~/.config/channels.toml).
	EnvConfigPath = "CHANNELS_CONFIG_PATH"
	// EnvHome overrides the data directory (default ~/.local/share/channels).
	EnvHome = "CHANNELS_HOME"
)

// Defaults are the locations used when no config file says otherwise.
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
}

// GetDefaults resolves the default locations, environment variables first.
func GetDefaults() (*Defaults, error) {
	configPath, err := fromEnvOrHome(EnvConfigPath, ".config", "channels.toml")
	if err != nil {
		return nil, err
	}

	baseDir, err := fromEnvOrHome(EnvHome, ".local", "share", "channels")
	if err != nil {
		return nil, err
	}

	return &Defaults{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
	}, nil
}

func fromEnvOrHome(env string, elem ...string) (string, error) {
	if path := os.Getenv(env); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(append([]string{homeDir}, elem...)...), nil
}
