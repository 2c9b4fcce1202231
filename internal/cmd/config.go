package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xdg/execpipe/internal/config"
	"github.com/xdg/execpipe/internal/term"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage execpipe's configuration.

The configuration file is stored at ~/.config/execpipe/config.yaml
(or $XDG_CONFIG_HOME/execpipe/config.yaml if XDG_CONFIG_HOME is set).`,
	// config subcommands must work while the file is broken
	PersistentPreRun: func(*cobra.Command, []string) { term.SetSilent(silentMode) },
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective config",
	Long: `Print the effective configuration as YAML.

If no config file exists, shows the default configuration.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print config file path",
	Args:  cobra.NoArgs,
	Run:   runConfigPath,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default config file",
	Long: `Create a commented configuration file with all default values.
If the file already exists, this command does nothing.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
}

func configPath() string {
	if configFile != "" {
		return configFile
	}
	return config.Path()
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	data, err := config.MarshalConfig(cfg)
	if err != nil {
		return err
	}
	term.Print(string(data))
	return nil
}

func runConfigPath(_ *cobra.Command, _ []string) {
	term.Println(configPath())
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	if configFile != "" {
		return fmt.Errorf("config init writes the default location; drop --config")
	}

	created, err := config.WriteDefaultConfig()
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	if !created {
		term.Printf("Config already exists at: %s\n", config.Path())
		return nil
	}
	term.Printf("Created default config at: %s\n", config.Path())
	return nil
}
