package config

import (
	"fmt"
	"time"
)

// validLogLevels defines the allowed log level values.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateConfig checks that every field of cfg holds a usable value:
//   - channel.fd and channel.max_line_bytes are non-negative
//   - dispatch.timeout parses as a positive duration
//   - log.level is one of: debug, info, warn, error (if non-empty)
//
// The returned error names the offending field.
func ValidateConfig(cfg *Config) error {
	if cfg.Channel.FD < 0 {
		return fmt.Errorf("channel.fd: must be non-negative, got %d", cfg.Channel.FD)
	}
	if cfg.Channel.MaxLineBytes < 0 {
		return fmt.Errorf("channel.max_line_bytes: must be non-negative, got %d", cfg.Channel.MaxLineBytes)
	}

	if cfg.Dispatch.Timeout != "" {
		if err := validateDuration(cfg.Dispatch.Timeout, "dispatch.timeout"); err != nil {
			return err
		}
	}

	if cfg.Log.Level != "" && !validLogLevels[cfg.Log.Level] {
		return fmt.Errorf("log.level: invalid value %q, must be one of: debug, info, warn, error", cfg.Log.Level)
	}
	return nil
}

// DispatchTimeout returns the parsed dispatch timeout, or zero when unset.
// It assumes cfg has passed ValidateConfig.
func (c *Config) DispatchTimeout() time.Duration {
	if c.Dispatch.Timeout == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.Dispatch.Timeout)
	return d
}

func validateDuration(d, field string) error {
	parsed, err := time.ParseDuration(d)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q", field, d)
	}
	if parsed <= 0 {
		return fmt.Errorf("%s: must be positive, got %q", field, d)
	}
	return nil
}
