package config

// DefaultMaxLineBytes bounds a single request message unless configured.
const DefaultMaxLineBytes = 1 << 20

// DefaultConfig returns a Config with all defaults populated.
// Requests are read from stdin and commands get exactly the environment
// their request names.
func DefaultConfig() *Config {
	return &Config{
		Channel: ChannelConfig{
			FD:           0,
			MaxLineBytes: DefaultMaxLineBytes,
		},
		Dispatch: DispatchConfig{
			InheritEnv: false,
		},
		Log: LogConfig{
			File:  "~/.local/state/execpipe/execpipe.log",
			Level: "info",
		},
	}
}

// defaultConfigTemplate is written by WriteDefaultConfig.
const defaultConfigTemplate = `# execpipe configuration

channel:
  # Descriptor read by "execpipe serve". 0 is stdin.
  fd: 0
  # When set, serve listens on this Unix socket instead of reading fd.
  # socket: ~/.local/state/execpipe/execpipe.sock
  # Longest accepted message in bytes. 0 disables the limit.
  max_line_bytes: 1048576

dispatch:
  # Kill commands that run longer than this (Go duration, e.g. "30s").
  # timeout: 30s
  # Start commands with execpipe's own environment plus the request's.
  inherit_env: false

log:
  file: ~/.local/state/execpipe/execpipe.log
  # debug, info, warn or error
  level: info
  # One line per accepted, rejected and finished request.
  # audit_file: ~/.local/state/execpipe/audit.log
`
