// Package config provides settings and filesystem locations for gitflip.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	// AppName is the application name used for directories.
	AppName = "gitflip"
	// ConfigFileName is the settings file name inside the config directory.
	ConfigFileName = "config.yaml"
	// StateFileName holds the persisted profile list and active profile id.
	StateFileName = "profiles.yaml"

	configDirEnv = "GITFLIP_CONFIG_DIR"
	dataDirEnv   = "GITFLIP_DATA_DIR"
)

// Paths holds all the application paths.
type Paths struct {
	ConfigDir  string
	DataDir    string
	ConfigFile string
	StateFile  string
}

// GetPaths returns the application paths following the XDG Base Directory specification.
func GetPaths() Paths {
	configDir := getConfigDir()
	dataDir := getDataDir()
	return Paths{
		ConfigDir:  configDir,
		DataDir:    dataDir,
		ConfigFile: filepath.Join(configDir, ConfigFileName),
		StateFile:  filepath.Join(dataDir, StateFileName),
	}
}

func getConfigDir() string {
	if dir := os.Getenv(configDirEnv); dir != "" {
		return dir
	}

	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, AppName)
		}
		if userProfile := os.Getenv("USERPROFILE"); userProfile != "" {
			return filepath.Join(userProfile, "AppData", "Roaming", AppName)
		}
	case "darwin":
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			return filepath.Join(xdgConfig, AppName)
		}
		if home := os.Getenv("HOME"); home != "" {
			// Prefer an existing ~/.config/gitflip over the Library location
			xdgPath := filepath.Join(home, ".config", AppName)
			if _, err := os.Stat(xdgPath); err == nil {
				return xdgPath
			}
			return filepath.Join(home, "Library", "Application Support", AppName)
		}
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			return filepath.Join(xdgConfig, AppName)
		}
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, ".config", AppName)
		}
	}

	return filepath.Join(".", "."+AppName)
}

func getDataDir() string {
	if dir := os.Getenv(dataDirEnv); dir != "" {
		return dir
	}

	switch runtime.GOOS {
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, AppName)
		}
		if userProfile := os.Getenv("USERPROFILE"); userProfile != "" {
			return filepath.Join(userProfile, "AppData", "Local", AppName)
		}
	case "darwin":
		if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
			return filepath.Join(xdgData, AppName)
		}
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, "Library", "Application Support", AppName)
		}
	default:
		if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
			return filepath.Join(xdgData, AppName)
		}
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, ".local", "share", AppName)
		}
	}

	return filepath.Join(".", "."+AppName, "data")
}

// DefaultSSHDir returns the user's ssh directory (~/.ssh).
func DefaultSSHDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".", ".ssh")
	}
	return filepath.Join(home, ".ssh")
}

// EnsureDirs creates all necessary directories if they don't exist.
func (p Paths) EnsureDirs() error {
	for _, dir := range []string{p.ConfigDir, p.DataDir} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	return nil
}
