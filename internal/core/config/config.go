// Package config resolves the tool's working environment: the project
// and global directories, the fixed file locations inside them, and the
// optional user settings file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/pyrope-pm/pyrope/internal/core/lockfile"
	"github.com/pyrope-pm/pyrope/internal/core/project"
	"github.com/pyrope-pm/pyrope/internal/core/registry"
)

const (
	// GlobalDirName is the per-user directory under the home directory.
	GlobalDirName = ".pyrope"
	// SettingsName is the optional settings file inside the global dir.
	SettingsName = "config.toml"
)

// Paths holds every directory and file location the tool works with.
type Paths struct {
	CurrentDir   string
	HomeDir      string
	GlobalDir    string
	ManifestPath string
	LockfilePath string
}

// NewPaths resolves the working directories and creates the global
// directory if it does not exist yet.
func NewPaths() (*Paths, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve current directory: %w", err)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}

	globalDir := filepath.Join(homeDir, GlobalDirName)
	if err := os.MkdirAll(globalDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create global directory %s: %w", globalDir, err)
	}

	return &Paths{
		CurrentDir:   currentDir,
		HomeDir:      homeDir,
		GlobalDir:    globalDir,
		ManifestPath: filepath.Join(currentDir, project.ManifestName),
		LockfilePath: filepath.Join(currentDir, lockfile.LockfileName),
	}, nil
}

// Settings is the user-tunable configuration.
type Settings struct {
	Registry string `toml:"registry"`
}

// LoadSettings reads the settings file from the global directory. A
// missing file is not an error; defaults are returned instead.
func LoadSettings(globalDir string) (*Settings, error) {
	settings := &Settings{Registry: registry.DefaultBaseURL}

	settingsPath := filepath.Join(globalDir, SettingsName)
	if _, err := os.Stat(settingsPath); os.IsNotExist(err) {
		return settings, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat settings %s: %w", settingsPath, err)
	}

	if _, err := toml.DecodeFile(settingsPath, settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings %s: %w", settingsPath, err)
	}
	if settings.Registry == "" {
		settings.Registry = registry.DefaultBaseURL
	}
	return settings, nil
}
