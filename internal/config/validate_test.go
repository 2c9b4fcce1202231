package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unlimited line", func(c *Config) { c.Channel.MaxLineBytes = 0 }, ""},
		{"negative fd", func(c *Config) { c.Channel.FD = -1 }, "channel.fd"},
		{"negative max line", func(c *Config) { c.Channel.MaxLineBytes = -5 }, "channel.max_line_bytes"},
		{"valid timeout", func(c *Config) { c.Dispatch.Timeout = "90s" }, ""},
		{"bad timeout", func(c *Config) { c.Dispatch.Timeout = "soon" }, "dispatch.timeout"},
		{"zero timeout", func(c *Config) { c.Dispatch.Timeout = "0s" }, "must be positive"},
		{"empty level", func(c *Config) { c.Log.Level = "" }, ""},
		{"bad level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := ValidateConfig(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateConfig() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateConfig() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestDispatchTimeout(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.DispatchTimeout(); got != 0 {
		t.Errorf("DispatchTimeout() = %v, want 0", got)
	}
	cfg.Dispatch.Timeout = "2m"
	if got := cfg.DispatchTimeout(); got != 2*time.Minute {
		t.Errorf("DispatchTimeout() = %v, want 2m", got)
	}
}
