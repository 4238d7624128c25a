package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/fivetwenty-io/apikit/pkg/rest"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Resource actions.
const (
	ActionList   = "list"
	ActionGet    = "get"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionPatch  = "patch"
	ActionDelete = "delete"
)

// NewResourceCommand creates the resource command, which drives the
// resources declared under "resources" in the config file.
func NewResourceCommand() *cobra.Command {
	var (
		data    string
		queries []string
	)

	cmd := &cobra.Command{
		Use:   "resource NAME ACTION [ID]",
		Short: "Operate on a configured resource",
		Long: `Operate on a resource declared in the config file:

  resources:
    posts: /posts
    users: /users

ACTION is one of list, get, create, update, patch or delete.`,
		Example: `  apikit resource posts list --query userId=1
  apikit resource posts get 1
  apikit resource posts create --data '{"title":"hello"}'
  apikit resource posts update 1 --data '{"id":1,"title":"replaced"}'
  apikit resource posts patch 1 --data '{"title":"renamed"}'
  apikit resource posts delete 1`,
		Args: cobra.RangeArgs(2, 3), //nolint:mnd // name, action and optional id
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPI(viper.GetViper(), os.Stderr)
			if err != nil {
				return err
			}

			if len(api.ResourceNames()) == 0 {
				return ErrNoResourcesDefined
			}

			resource, err := rest.Lookup[*dynamicResource](api, args[0])
			if err != nil {
				return fmt.Errorf("%w (available: %s)", err, strings.Join(api.ResourceNames(), ", "))
			}

			query, err := parseKeyValues(queries)
			if err != nil {
				return fmt.Errorf("parsing --query: %w", err)
			}

			var id string
			if len(args) == 3 { //nolint:mnd // id argument present
				id = args[2]
			}

			result, err := runAction(cmd, resource, strings.ToLower(args[1]), id, data, query)
			if err != nil {
				return err
			}

			return printOutput(cmd.OutOrStdout(), viper.GetString(KeyOutput), result)
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	cmd.Flags().StringArrayVarP(&queries, "query", "q", nil, "query parameter as key=value (repeatable)")

	return cmd
}

func runAction(cmd *cobra.Command, resource *dynamicResource, action, id, data string, query map[string]string) (any, error) {
	ctx := cmd.Context()

	var params *map[string]string
	if len(query) > 0 {
		params = &query
	}

	switch action {
	case ActionList, ActionGet, ActionCreate, ActionUpdate, ActionPatch, ActionDelete:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAction, action)
	}

	switch action {
	case ActionList:
		resp, err := resource.List(ctx, params)
		if err != nil {
			return nil, err
		}

		return resp.Data, nil
	case ActionCreate:
		body, err := decodeData(data)
		if err != nil {
			return nil, err
		}

		resp, err := resource.Create(ctx, body)
		if err != nil {
			return nil, err
		}

		return resp.Data, nil
	}

	if id == "" {
		return nil, fmt.Errorf("%w for %s", ErrIDRequired, action)
	}

	switch action {
	case ActionGet:
		resp, err := resource.GetByID(ctx, id, params)
		if err != nil {
			return nil, err
		}

		return resp.Data, nil
	case ActionUpdate, ActionPatch:
		body, err := decodeData(data)
		if err != nil {
			return nil, err
		}

		update := resource.Update
		if action == ActionPatch {
			update = resource.Patch
		}

		resp, err := update(ctx, id, body)
		if err != nil {
			return nil, err
		}

		return resp.Data, nil
	case ActionDelete:
		resp, err := resource.Delete(ctx, id, nil)
		if err != nil {
			return nil, err
		}

		return resp.Data, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAction, action)
	}
}
