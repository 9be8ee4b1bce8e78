// Package commands implements the billwatch CLI.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/billwatch/billwatch/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "billwatch",
		Short:   "Find recurring bills and subscriptions in bank exports",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	var configFile string
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default none)")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return loadConfig(configFile)
	}

	rootCmd.AddCommand(newAnalyzeCommand())
	rootCmd.AddCommand(newDetectCommand())

	return rootCmd
}

// loadConfig seeds viper with defaults and, when given, a config file.
// Flags still win over config values.
func loadConfig(configFile string) error {
	viper.SetDefault("min_count", 3)
	viper.SetDefault("max_groups", 200)
	viper.SetDefault("sign", "auto")

	if configFile == "" {
		return nil
	}
	viper.SetConfigFile(configFile)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}
