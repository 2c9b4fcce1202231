// Package cmd implements the CLI commands for execpipe.
package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/xdg/execpipe/internal/clog"
	"github.com/xdg/execpipe/internal/config"
	"github.com/xdg/execpipe/internal/term"
	"github.com/xdg/execpipe/internal/version"
)

var (
	configFile string
	debugLog   bool
	silentMode bool

	// appConfig is set by setup before any subcommand runs.
	appConfig *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "execpipe",
	Short: "Run commands requested over a newline-delimited JSON channel",
	Long: `Execpipe reads command requests from a descriptor or Unix socket, one
strict JSON object per line, and runs each one with exactly the argument
vector and environment it names.

A request looks like:

  {"type": "command", "data": {"path": "/bin/echo", "args": ["echo", "hi"], "env": {"LANG": "C"}}}

Malformed lines and lines that don't match the request schema are skipped;
the channel closing stops the server.`,
	Version:           version.String(),
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default $XDG_CONFIG_HOME/execpipe/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "log at debug level")
	rootCmd.PersistentFlags().BoolVar(&silentMode, "silent", false, "suppress non-error output")
}

// Execute runs the root command and returns any error.
// Errors other than *ExitCodeError are reported on stderr.
func Execute() error {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		var exitErr *ExitCodeError
		if !errors.As(err, &exitErr) {
			term.Error("%v", err)
		}
	}
	return err
}

// setup loads the configuration and points the operational log at it.
func setup(cmd *cobra.Command, _ []string) error {
	term.SetSilent(silentMode)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	appConfig = cfg

	level := clog.ParseLevel(cfg.Log.Level)
	if debugLog {
		level = clog.LevelDebug
	}
	if err := clog.Configure(cfg.Log.File, level, false); err != nil {
		term.Warn("logging to stderr only: %v", err)
	}
	clog.RedirectStdLog(clog.LevelInfo)
	return nil
}

// loadConfig reads --config, or the default config path when unset.
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadFile(configFile)
	}
	return config.Load()
}

// currentConfig returns the loaded configuration, or the defaults when
// setup has not run.
func currentConfig() *config.Config {
	if appConfig == nil {
		return config.DefaultConfig()
	}
	return appConfig
}
