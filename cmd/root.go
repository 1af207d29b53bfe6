package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/camrelay/cmd/cameras"
	"github.com/tphakala/camrelay/cmd/config"
	"github.com/tphakala/camrelay/cmd/serve"
	"github.com/tphakala/camrelay/internal/app"
	"github.com/tphakala/camrelay/internal/conf"
	"github.com/tphakala/camrelay/internal/logger"
)

// RootCommand creates and returns the root command. Subcommands share settings, which
// is filled from the loaded configuration before any of them runs.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "camrelay",
		Short:         "Camera metadata and stream relay service",
		Version:       settings.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
	}

	rootCmd.AddCommand(
		serve.Command(settings),
		cameras.Command(settings),
		config.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return initialize(settings)
	}

	return rootCmd
}

// initialize loads the configuration into settings and installs the global logger.
func initialize(settings *conf.Settings) error {
	loaded, err := conf.Load()
	if err != nil {
		return err
	}

	// build metadata comes from ldflags, not from the config file
	loaded.Version = settings.Version
	loaded.BuildDate = settings.BuildDate
	*settings = *loaded

	log, err := app.NewLogger(settings.Logging, settings.Debug)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	logger.SetGlobal(log)

	log.Debug("configuration loaded",
		logger.String("config_file", settings.ConfigFile),
		logger.String("version", settings.Version))
	return nil
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command) error {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: search ., ~/.config/camrelay, /etc/camrelay)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug output")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn or error")

	if err := viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	if err := viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
