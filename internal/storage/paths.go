// Package storage keeps preferences, game statistics and the unfinished game
// between sessions.
package storage

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "connectplay"

// DataDir returns the platform-specific data directory, creating it if needed.
//   - macOS: ~/Library/Application Support/connectplay/
//   - Linux: $XDG_DATA_HOME/connectplay/ or ~/.local/share/connectplay/
//   - Windows: %APPDATA%/connectplay/
func DataDir() (string, error) {
	base, err := baseDataDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, appName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func baseDataDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support"), nil
	case "windows":
		if dir := os.Getenv("APPDATA"); dir != "" {
			return dir, nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "AppData", "Roaming"), nil
	default:
		if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
			return dir, nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share"), nil
	}
}

// DatabaseDir returns the Badger directory under base, or under DataDir when
// base is empty.
func DatabaseDir(base string) (string, error) {
	if base == "" {
		var err error
		if base, err = DataDir(); err != nil {
			return "", err
		}
	}
	dir := filepath.Join(base, "db")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
