// Package config provides the execpipe configuration file types and the
// functions that locate, parse, validate and write them.
package config

// Config represents the execpipe configuration.
// It is typically stored at ~/.config/execpipe/config.yaml.
type Config struct {
	Channel  ChannelConfig  `yaml:"channel"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Log      LogConfig      `yaml:"log"`
}

// ChannelConfig selects where requests are read from.
type ChannelConfig struct {
	// FD is the inherited descriptor read by "serve" when Socket is empty.
	FD int `yaml:"fd"`
	// Socket, when set, makes "serve" listen on a Unix socket and treat
	// every connection as its own request channel.
	Socket string `yaml:"socket,omitempty"`
	// MaxLineBytes bounds a single message. Zero means unlimited.
	MaxLineBytes int `yaml:"max_line_bytes"`
}

// DispatchConfig controls how command requests are run.
type DispatchConfig struct {
	// Timeout is a Go duration string. Empty means no timeout.
	Timeout    string `yaml:"timeout,omitempty"`
	InheritEnv bool   `yaml:"inherit_env"`
}

// LogConfig contains operational log settings.
type LogConfig struct {
	File  string `yaml:"file,omitempty"`
	Level string `yaml:"level,omitempty"`
	// AuditFile receives one line per request outcome. Empty disables it.
	AuditFile string `yaml:"audit_file,omitempty"`
}
