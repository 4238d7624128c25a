package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fivetwenty-io/apikit/cmd/apikit/commands"
	"github.com/fivetwenty-io/apikit/internal/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "apikit",
	Short: "Generic REST API CLI",
	Long: `A command-line interface for calling REST APIs.

Requests are sent relative to a configured base URL with default headers,
query parameters and timeout. Resources declared in the config file can be
listed, fetched, created, updated and deleted by name.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.apikit/config.yml)")
	rootCmd.PersistentFlags().StringP("base-url", "u", "", "API base URL")
	rootCmd.PersistentFlags().StringArrayP("header", "H", nil, "default header as key=value (repeatable)")
	rootCmd.PersistentFlags().Duration("timeout", constants.DefaultHTTPTimeout, "request timeout")
	rootCmd.PersistentFlags().StringP("output", "o", constants.OutputFormatTable, "output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag(commands.KeyBaseURL, rootCmd.PersistentFlags().Lookup("base-url"))
	_ = viper.BindPFlag(commands.KeyHeader, rootCmd.PersistentFlags().Lookup("header"))
	_ = viper.BindPFlag(commands.KeyTimeout, rootCmd.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag(commands.KeyOutput, rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag(commands.KeyVerbose, rootCmd.PersistentFlags().Lookup("verbose"))

	// Add commands
	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewRequestCommand())
	rootCmd.AddCommand(commands.NewResourceCommand())
}

func initConfig() {
	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in ~/.apikit/config.yml
		viper.AddConfigPath(filepath.Join(home, ".apikit"))
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match
	viper.SetEnvPrefix("APIKIT")
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool(commands.KeyVerbose) {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
