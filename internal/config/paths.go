package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Dir returns the execpipe configuration directory.
// By default this is ~/.config/execpipe/. If XDG_CONFIG_HOME is set,
// $XDG_CONFIG_HOME/execpipe/ is used instead.
// The returned path always has a trailing slash.
func Dir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = "~/.config"
	}
	return ExpandHome(base) + "/execpipe/"
}

// EnsureDir creates the configuration directory with 0700 permissions if
// it doesn't exist.
func EnsureDir() error {
	if err := os.MkdirAll(Dir(), 0o700); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	return nil
}

// Path returns the full path to the configuration file.
func Path() string {
	return Dir() + "config.yaml"
}

// ExpandHome replaces a leading ~ in path with the user's home directory.
// If the home directory cannot be determined, the path is returned unchanged.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
