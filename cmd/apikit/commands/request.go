package commands

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/fivetwenty-io/apikit/pkg/apikit"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRequestCommand creates the raw request command.
func NewRequestCommand() *cobra.Command {
	var (
		data    string
		queries []string
	)

	cmd := &cobra.Command{
		Use:   "request METHOD PATH",
		Short: "Send a request to the configured API",
		Long: `Send a single request relative to the configured base URL and print the
decoded response. METHOD is one of get, post, put, patch or delete.`,
		Example: `  apikit request get /posts --query _limit=5
  apikit request post /posts --data '{"title":"hello","userId":1}'
  apikit request delete /posts/1`,
		Args: cobra.ExactArgs(2), //nolint:mnd // method and path
		RunE: func(cmd *cobra.Command, args []string) error {
			method := strings.ToUpper(args[0])
			if !isSupportedMethod(method) {
				return fmt.Errorf("%w: %s", ErrUnsupportedMethod, args[0])
			}

			query, err := parseKeyValues(queries)
			if err != nil {
				return fmt.Errorf("parsing --query: %w", err)
			}

			req := &apikit.Request{
				Method: method,
				Path:   args[1],
				Query:  toValues(query),
			}

			if data != "" {
				body, err := decodeData(data)
				if err != nil {
					return err
				}

				req.Body = body
			}

			api, err := NewAPI(viper.GetViper(), os.Stderr)
			if err != nil {
				return err
			}

			resp, err := api.Do(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}

			return printOutput(cmd.OutOrStdout(), viper.GetString(KeyOutput), decodeBody(resp.Body))
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	cmd.Flags().StringArrayVarP(&queries, "query", "q", nil, "query parameter as key=value (repeatable)")

	return cmd
}

func isSupportedMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

func toValues(values map[string]string) url.Values {
	if len(values) == 0 {
		return nil
	}

	query := make(url.Values, len(values))
	for key, value := range values {
		query.Set(key, value)
	}

	return query
}
