package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fivetwenty-io/apikit/internal/constants"
	"github.com/fivetwenty-io/apikit/internal/logging"
	"github.com/fivetwenty-io/apikit/pkg/apikit"
	"github.com/fivetwenty-io/apikit/pkg/rest"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Configuration keys read through viper.
const (
	KeyBaseURL   = "base_url"
	KeyHeaders   = "headers"
	KeyHeader    = "header"
	KeyTimeout   = "timeout"
	KeyParams    = "params"
	KeyUserAgent = "user_agent"
	KeyResources = "resources"
	KeyOutput    = "output"
	KeyVerbose   = "verbose"
)

// Common string constants used throughout the commands package.
const (
	NotAvailable = "N/A"

	defaultJSONIndent = "  "
)

// Common static errors used throughout the commands package.
var (
	ErrBaseURLRequired    = errors.New("base URL is required (use --base-url or base_url in the config file)")
	ErrInvalidKeyValue    = errors.New("expected key=value")
	ErrUnsupportedMethod  = errors.New("unsupported method")
	ErrUnsupportedAction  = errors.New("unsupported action")
	ErrIDRequired         = errors.New("an id argument is required")
	ErrDataRequired       = errors.New("--data is required")
	ErrInvalidData        = errors.New("--data must be valid JSON")
	ErrNoResourcesDefined = errors.New("no resources defined in the config file")
)

// dynamicResource is the untyped resource used for resources declared in the
// config file.
type dynamicResource = rest.Resource[any, json.RawMessage, map[string]string, any]

func newDynamicResource(path string) rest.Constructor[*dynamicResource] {
	return func(api *rest.API) *dynamicResource {
		return rest.NewResource[any, json.RawMessage, map[string]string, any](api, path)
	}
}

// parseKeyValues turns "k=v" pairs into a map. Later pairs win.
func parseKeyValues(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidKeyValue, pair)
		}

		values[strings.TrimSpace(key)] = value
	}

	return values, nil
}

// ConfigFromViper builds the transport configuration from the config file,
// the environment and the global flags.
func ConfigFromViper(v *viper.Viper) (apikit.Config, error) {
	flagHeaders, err := parseKeyValues(v.GetStringSlice(KeyHeader))
	if err != nil {
		return apikit.Config{}, fmt.Errorf("parsing --header: %w", err)
	}

	// viper lowercases map keys read from config files.
	headers := make(map[string]string)
	for _, source := range []map[string]string{v.GetStringMapString(KeyHeaders), flagHeaders} {
		for key, value := range source {
			headers[http.CanonicalHeaderKey(key)] = value
		}
	}

	cfg := apikit.Config{
		BaseURL:   v.GetString(KeyBaseURL),
		Headers:   headers,
		Timeout:   v.GetDuration(KeyTimeout),
		Params:    v.GetStringMapString(KeyParams),
		UserAgent: v.GetString(KeyUserAgent),
		Debug:     v.GetBool(KeyVerbose),
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultHTTPTimeout
	}

	if cfg.BaseURL == "" {
		return cfg, ErrBaseURLRequired
	}

	return cfg, nil
}

// NewAPI creates an API from viper settings with every configured resource
// attached.
func NewAPI(v *viper.Viper, logOutput io.Writer) (*rest.API, error) {
	cfg, err := ConfigFromViper(v)
	if err != nil {
		return nil, err
	}

	level := "info"
	if cfg.Debug {
		level = "debug"
	}

	logger := logging.New(logging.Config{Level: level, Output: logOutput})

	interceptors := apikit.NewInterceptors()
	interceptors.Request.Use(apikit.RequestIDInterceptor(), nil)

	if cfg.Debug {
		interceptors.Request.Use(apikit.LoggingInterceptor(logger), nil)
		interceptors.Response.Use(apikit.LoggingResponseInterceptor(logger))
	}

	api := rest.New(apikit.NewConfigStore(cfg), rest.WithInterceptors(interceptors), rest.WithLogger(logger))

	resources := v.GetStringMapString(KeyResources)
	for _, name := range slices.Sorted(maps.Keys(resources)) {
		_, err := api.AddResource(name, rest.Bind(newDynamicResource(resources[name])))
		if err != nil {
			return nil, fmt.Errorf("attaching resource %s: %w", name, err)
		}
	}

	return api, nil
}

// decodeData parses a --data flag value.
func decodeData(data string) (json.RawMessage, error) {
	if data == "" {
		return nil, ErrDataRequired
	}

	if !json.Valid([]byte(data)) {
		return nil, ErrInvalidData
	}

	return json.RawMessage(data), nil
}

// decodeBody parses a response body for output. Non-JSON bodies are returned
// as text.
func decodeBody(body []byte) any {
	if len(body) == 0 {
		return nil
	}

	var data any

	err := json.Unmarshal(body, &data)
	if err != nil {
		return string(body)
	}

	return data
}

// printOutput writes data in the selected output format.
func printOutput(w io.Writer, format string, data any) error {
	switch format {
	case constants.OutputFormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", defaultJSONIndent)

		return encoder.Encode(data)
	case constants.OutputFormatYAML:
		encoder := yaml.NewEncoder(w)

		err := encoder.Encode(data)
		if err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}

		return encoder.Close()
	default:
		return renderTable(w, data)
	}
}

func renderTable(w io.Writer, data any) error {
	switch typed := data.(type) {
	case nil:
		return nil
	case []any:
		if len(typed) == 0 {
			_, _ = io.WriteString(w, "No results\n")

			return nil
		}

		return renderRows(w, typed)
	case map[string]any:
		table := tablewriter.NewWriter(w)
		table.Header("Property", "Value")

		for _, key := range slices.Sorted(maps.Keys(typed)) {
			_ = table.Append([]string{headerLabel(key), formatCell(typed[key])})
		}

		return render(table)
	default:
		_, err := fmt.Fprintln(w, formatCell(typed))

		return err
	}
}

// renderRows prints a list of objects, one row each, using the keys of the
// first object as columns.
func renderRows(w io.Writer, rows []any) error {
	first, ok := rows[0].(map[string]any)
	if !ok {
		table := tablewriter.NewWriter(w)
		table.Header("Value")

		for _, row := range rows {
			_ = table.Append([]string{formatCell(row)})
		}

		return render(table)
	}

	columns := slices.Sorted(maps.Keys(first))

	headers := make([]any, 0, len(columns))
	for _, column := range columns {
		headers = append(headers, headerLabel(column))
	}

	table := tablewriter.NewWriter(w)
	table.Header(headers...)

	for _, row := range rows {
		object, _ := row.(map[string]any)

		cells := make([]string, 0, len(columns))
		for _, column := range columns {
			value, ok := object[column]
			if !ok {
				cells = append(cells, NotAvailable)

				continue
			}

			cells = append(cells, formatCell(value))
		}

		_ = table.Append(cells)
	}

	return render(table)
}

func render(table *tablewriter.Table) error {
	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func headerLabel(key string) string {
	return cases.Title(language.English).String(strings.NewReplacer("_", " ", "-", " ").Replace(key))
}

func formatCell(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case map[string]any, []any:
		data, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprint(typed)
		}

		return string(data)
	default:
		return fmt.Sprint(typed)
	}
}
