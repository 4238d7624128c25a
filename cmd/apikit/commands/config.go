package commands

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/fivetwenty-io/apikit/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config represents the effective CLI configuration.
type Config struct {
	ConfigFile string            `json:"config_file,omitempty" yaml:"config_file,omitempty"`
	BaseURL    string            `json:"base_url"              yaml:"base_url"`
	Headers    map[string]string `json:"headers,omitempty"     yaml:"headers,omitempty"`
	Timeout    string            `json:"timeout"               yaml:"timeout"`
	Params     map[string]string `json:"params,omitempty"      yaml:"params,omitempty"`
	UserAgent  string            `json:"user_agent,omitempty"  yaml:"user_agent,omitempty"`
	Resources  map[string]string `json:"resources,omitempty"   yaml:"resources,omitempty"`
	Output     string            `json:"output"                yaml:"output"`
	Verbose    bool              `json:"verbose"               yaml:"verbose"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect CLI configuration",
		Long:  "Inspect the configuration assembled from the config file, environment and flags",
	}

	cmd.AddCommand(newConfigShowCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective configuration with header values masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(viper.GetViper())
			if err != nil {
				return err
			}

			output := viper.GetString(KeyOutput)
			if output == constants.OutputFormatJSON || output == constants.OutputFormatYAML {
				return printOutput(cmd.OutOrStdout(), output, config)
			}

			return displayConfigTable(cmd, config)
		},
	}
}

// loadConfig collects the effective configuration for display. Header values
// are masked since they usually carry credentials.
func loadConfig(v *viper.Viper) (*Config, error) {
	cfg, err := ConfigFromViper(v)
	if err != nil && !errors.Is(err, ErrBaseURLRequired) {
		return nil, err
	}

	headers := make(map[string]string, len(cfg.Headers))
	for key, value := range cfg.Headers {
		headers[key] = maskValue(value)
	}

	return &Config{
		ConfigFile: v.ConfigFileUsed(),
		BaseURL:    cfg.BaseURL,
		Headers:    headers,
		Timeout:    cfg.Timeout.String(),
		Params:     cfg.Params,
		UserAgent:  cfg.UserAgent,
		Resources:  v.GetStringMapString(KeyResources),
		Output:     v.GetString(KeyOutput),
		Verbose:    cfg.Debug,
	}, nil
}

func maskValue(value string) string {
	const visible = 4

	if len(value) <= visible {
		return strings.Repeat("*", len(value))
	}

	return value[:visible] + strings.Repeat("*", len(value)-visible)
}

func displayConfigTable(cmd *cobra.Command, config *Config) error {
	out := cmd.OutOrStdout()

	table := tablewriter.NewWriter(out)
	table.Header("Property", "Value")

	configFile := config.ConfigFile
	if configFile == "" {
		configFile = NotAvailable
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = NotAvailable
	}

	_ = table.Append([]string{"Config File", configFile})
	_ = table.Append([]string{"Base URL", baseURL})
	_ = table.Append([]string{"Timeout", config.Timeout})
	_ = table.Append([]string{"User Agent", config.UserAgent})
	_ = table.Append([]string{"Output", config.Output})
	_ = table.Append([]string{"Verbose", fmt.Sprint(config.Verbose)})

	for _, key := range slices.Sorted(maps.Keys(config.Headers)) {
		_ = table.Append([]string{"Header " + key, config.Headers[key]})
	}

	for _, key := range slices.Sorted(maps.Keys(config.Params)) {
		_ = table.Append([]string{"Param " + key, config.Params[key]})
	}

	err := render(table)
	if err != nil {
		return err
	}

	if len(config.Resources) == 0 {
		return nil
	}

	_, _ = fmt.Fprintln(out, "\nResources:")

	resources := tablewriter.NewWriter(out)
	resources.Header("Name", "Path")

	for _, name := range slices.Sorted(maps.Keys(config.Resources)) {
		_ = resources.Append([]string{name, config.Resources[name]})
	}

	return render(resources)
}
