// fsutil/locations.go
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// GetHomeDir returns the user's home directory
func GetHomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return home, nil
}

// GetConfigDir returns the appropriate configuration directory for the application
func GetConfigDir(appName string) (string, error) {
	home, err := GetHomeDir()
	if err != nil {
		return "", err
	}

	// Determine OS-specific config directory
	switch runtime.GOOS {
	case "windows":
		// Windows: %APPDATA%\appName
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, appName), nil

	case "darwin":
		// macOS: ~/Library/Application Support/appName
		return filepath.Join(home, "Library", "Application Support", appName), nil

	default:
		// Linux/Unix: ~/.config/appName (XDG Base Directory specification)
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			configHome = filepath.Join(home, ".config")
		}
		return filepath.Join(configHome, appName), nil
	}
}

// GetLogDir returns the appropriate log directory for the application
func GetLogDir(appName string) (string, error) {
	home, err := GetHomeDir()
	if err != nil {
		return "", err
	}

	switch runtime.GOOS {
	case "windows":
		// Windows: %LOCALAPPDATA%\appName\Logs
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(home, "AppData", "Local")
		}
		return filepath.Join(localAppData, appName, "Logs"), nil

	case "darwin":
		// macOS: ~/Library/Logs/appName
		return filepath.Join(home, "Library", "Logs", appName), nil

	default:
		// Linux/Unix: XDG state dir, falling back to the data dir
		stateHome := os.Getenv("XDG_STATE_HOME")
		if stateHome != "" {
			return filepath.Join(stateHome, appName, "logs"), nil
		}

		dataHome := os.Getenv("XDG_DATA_HOME")
		if dataHome == "" {
			dataHome = filepath.Join(home, ".local", "share")
		}
		return filepath.Join(dataHome, appName, "logs"), nil
	}
}
