package commands

import (
	"github.com/fivetwenty-io/apikit/internal/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewVersionCommand creates the version command
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display detailed version information about the apikit CLI",
		RunE: func(cmd *cobra.Command, args []string) error {
			type VersionInfo struct {
				Version string `json:"version" yaml:"version"`
				Commit  string `json:"commit"  yaml:"commit"`
				Built   string `json:"built"   yaml:"built"`
			}

			versionInfo := VersionInfo{
				Version: version,
				Commit:  commit,
				Built:   date,
			}

			output := viper.GetString(KeyOutput)
			if output == constants.OutputFormatJSON || output == constants.OutputFormatYAML {
				return printOutput(cmd.OutOrStdout(), output, versionInfo)
			}

			return printOutput(cmd.OutOrStdout(), output, map[string]any{
				"version": version,
				"commit":  commit,
				"built":   date,
			})
		},
	}
}
