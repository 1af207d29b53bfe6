// Package config provides commands for inspecting and writing the configuration file.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tphakala/camrelay/internal/conf"
)

const defaultConfigFile = "config.yaml"

// Command creates the config command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(initCommand(settings))
	return cmd
}

func initCommand(settings *conf.Settings) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the effective settings to a YAML config file",
		Long:  "Writes defaults merged with the current config file and environment to path (default ./config.yaml).",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigFile
			if len(args) == 1 {
				path = args[0]
			}
			return writeConfig(cmd, settings, path, force)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}

func writeConfig(cmd *cobra.Command, settings *conf.Settings, path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists, use --force to overwrite", path)
		}
	}

	if err := conf.SaveYAMLConfig(path, settings); err != nil {
		return err
	}

	_, err := fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
	return err
}
