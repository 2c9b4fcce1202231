package config

import (
	"errors"
	"fmt"
	"os"
)

// WriteDefaultConfig creates the configuration file at Path() with the
// commented default template. An existing file is left untouched and
// created reports false. The file is written with 0600 permissions.
func WriteDefaultConfig() (created bool, err error) {
	path := Path()

	_, err = os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	if err := EnsureDir(); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0o600); err != nil {
		return false, fmt.Errorf("write default config: %w", err)
	}
	return true, nil
}
