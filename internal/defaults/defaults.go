// Package defaults resolves the surfer data directory and seeds it with the
// embedded default files on first run.
//
// Platform paths:
//
//	macOS:   ~/Library/Application Support/Surfer/
//	Windows: %AppData%\Surfer\
//	Linux:   ~/.config/surfer/
//
// Override with SURFER_DATA_DIR environment variable.
package defaults

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

//go:embed dotsurfer/*
var defaultFiles embed.FS

const root = "dotsurfer"

// DataDir returns the platform-appropriate data directory.
func DataDir() (string, error) {
	if dir := os.Getenv("SURFER_DATA_DIR"); dir != "" {
		return dir, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}

	// Linux: lowercase per XDG convention
	if runtime.GOOS == "linux" {
		return filepath.Join(configDir, "surfer"), nil
	}
	return filepath.Join(configDir, "Surfer"), nil
}

// EnsureDataDir creates the data directory if it doesn't exist
// and copies default files if they're missing.
func EnsureDataDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Join(dir, "data"), 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := copyDefaults(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// copyDefaults writes embedded files that do not exist yet in dir.
func copyDefaults(dir string) error {
	return fs.WalkDir(defaultFiles, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		// embed.FS always uses forward slashes
		destPath := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(path, root+"/")))
		if d.IsDir() {
			return os.MkdirAll(destPath, 0755)
		}
		if _, err := os.Stat(destPath); err == nil {
			return nil
		}

		data, err := defaultFiles.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read embedded %s: %w", path, err)
		}
		if err := os.WriteFile(destPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", destPath, err)
		}
		return nil
	})
}

// GetDefault returns the content of a default file by name.
func GetDefault(name string) ([]byte, error) {
	return defaultFiles.ReadFile(root + "/" + name)
}

// ListDefaults returns the names of all default files.
func ListDefaults() ([]string, error) {
	var files []string
	err := fs.WalkDir(defaultFiles, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, strings.TrimPrefix(path, root+"/"))
		}
		return nil
	})
	return files, err
}

// DatabasePath is the default run history database location.
func DatabasePath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data", "surfer.db"), nil
}
