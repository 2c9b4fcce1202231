package config

import (
	"errors"
	"fmt"
	"os"
)

// Load reads the configuration from Path().
func Load() (*Config, error) {
	return LoadFile(Path())
}

// LoadFile reads, parses and validates the configuration at path.
// A missing file yields DefaultConfig(). Paths containing ~ are expanded.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		data = nil
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	expandPaths(cfg)
	return cfg, nil
}

func expandPaths(cfg *Config) {
	cfg.Channel.Socket = ExpandHome(cfg.Channel.Socket)
	cfg.Log.File = ExpandHome(cfg.Log.File)
	cfg.Log.AuditFile = ExpandHome(cfg.Log.AuditFile)
}
