package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/apikit/pkg/apikit"
)

// Response wraps a typed REST response.
type Response[T any] struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers.
	Headers http.Header
	// Data is the decoded response body.
	Data T
	// Raw is the undecoded response.
	Raw *apikit.Response
}

// Get performs a GET request and decodes the JSON response into type T.
func Get[T any](ctx context.Context, api *API, path string, params any, opts ...RequestOption) (*Response[T], error) {
	return decode[T](api.Get(ctx, path, params, opts...))
}

// Post performs a POST request with a JSON body and decodes the response into type T.
func Post[T any](ctx context.Context, api *API, path string, body any, opts ...RequestOption) (*Response[T], error) {
	return decode[T](api.Post(ctx, path, body, opts...))
}

// Put performs a PUT request with a JSON body and decodes the response into type T.
func Put[T any](ctx context.Context, api *API, path string, body any, opts ...RequestOption) (*Response[T], error) {
	return decode[T](api.Put(ctx, path, body, opts...))
}

// Patch performs a PATCH request with a JSON body and decodes the response into type T.
func Patch[T any](ctx context.Context, api *API, path string, body any, opts ...RequestOption) (*Response[T], error) {
	return decode[T](api.Patch(ctx, path, body, opts...))
}

// Delete performs a DELETE request with an optional body and decodes the response into type T.
func Delete[T any](ctx context.Context, api *API, path string, body any, opts ...RequestOption) (*Response[T], error) {
	return decode[T](api.Delete(ctx, path, body, opts...))
}

func decode[T any](resp *apikit.Response, err error) (*Response[T], error) {
	if err != nil {
		return nil, err
	}

	var data T

	if len(resp.Body) > 0 {
		err = json.Unmarshal(resp.Body, &data)
		if err != nil {
			return nil, fmt.Errorf("decoding response: %w", err)
		}
	}

	return &Response[T]{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Data:       data,
		Raw:        resp,
	}, nil
}
