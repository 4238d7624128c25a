package rest

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	capihttp "github.com/fivetwenty-io/apikit/internal/http"
	"github.com/fivetwenty-io/apikit/pkg/apikit"
)

// Constructor builds a resource bound to an API.
type Constructor[R any] func(api *API) R

// Bind adapts a typed constructor for AddResource.
func Bind[R any](ctor Constructor[R]) Constructor[any] {
	return func(api *API) any {
		return ctor(api)
	}
}

// API owns one transport and the configuration store it was built from.
// It is safe for concurrent use.
type API struct {
	config    *apikit.ConfigStore
	transport *capihttp.Client
	settings  settings

	mu        sync.RWMutex
	resources map[string]any
	names     []string
}

// New creates an API from store. A nil store means an empty configuration.
func New(store *apikit.ConfigStore, opts ...Option) *API {
	if store == nil {
		store = apikit.NewConfigStore(apikit.Config{})
	}

	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	return newAPI(store, s)
}

func newAPI(store *apikit.ConfigStore, s settings) *API {
	var transportOpts []capihttp.Option

	if s.logger != nil {
		transportOpts = append(transportOpts, capihttp.WithLogger(s.logger))
	}

	if s.httpClient != nil {
		transportOpts = append(transportOpts, capihttp.WithHTTPClient(s.httpClient))
	}

	transport := capihttp.NewClient(store.Snapshot(), s.interceptors, transportOpts...)
	s.interceptors = transport.Interceptors()

	return &API{
		config:    store,
		transport: transport,
		settings:  s,
		resources: make(map[string]any),
	}
}

// Config returns the live configuration store.
func (a *API) Config() *apikit.ConfigStore {
	return a.config
}

// Interceptors returns the request and response pipelines.
func (a *API) Interceptors() *apikit.Interceptors {
	return a.settings.interceptors
}

// SetConfig returns a new API built from cfg. The new API shares this API's
// interceptor pipelines, logger and HTTP client; this API is not modified.
// Attached resources are not carried over.
func (a *API) SetConfig(cfg apikit.Config) *API {
	return newAPI(apikit.NewConfigStore(cfg.Clone()), a.settings)
}

// SetConfigFunc is SetConfig with the configuration derived by fn from a
// detached copy of the current one.
func (a *API) SetConfigFunc(fn func(apikit.Config) apikit.Config) *API {
	return a.SetConfig(fn(a.config.Snapshot()))
}

// Do sends req. req.Config is merged over the API defaults.
func (a *API) Do(ctx context.Context, req *apikit.Request) (*apikit.Response, error) {
	return a.transport.Do(ctx, req)
}

// Get sends a GET request with params encoded as the query string.
func (a *API) Get(ctx context.Context, path string, params any, opts ...RequestOption) (*apikit.Response, error) {
	return a.call(ctx, http.MethodGet, path, params, nil, opts)
}

// Post sends a POST request with body.
func (a *API) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*apikit.Response, error) {
	return a.call(ctx, http.MethodPost, path, nil, body, opts)
}

// Put sends a PUT request with body.
func (a *API) Put(ctx context.Context, path string, body any, opts ...RequestOption) (*apikit.Response, error) {
	return a.call(ctx, http.MethodPut, path, nil, body, opts)
}

// Patch sends a PATCH request with body.
func (a *API) Patch(ctx context.Context, path string, body any, opts ...RequestOption) (*apikit.Response, error) {
	return a.call(ctx, http.MethodPatch, path, nil, body, opts)
}

// Delete sends a DELETE request. A nil body sends none; whether the server
// accepts a body on DELETE is up to the caller.
func (a *API) Delete(ctx context.Context, path string, body any, opts ...RequestOption) (*apikit.Response, error) {
	return a.call(ctx, http.MethodDelete, path, nil, body, opts)
}

func (a *API) call(ctx context.Context, method, path string, params, body any, opts []RequestOption) (*apikit.Response, error) {
	if path == "" {
		path = "/"
	}

	req := &apikit.Request{
		Method: method,
		Path:   path,
		Params: params,
		Body:   body,
	}

	for _, opt := range opts {
		opt(req)
	}

	return a.transport.Do(ctx, req)
}

// AddResource attaches ctor(a) under name and returns a for chaining. A name
// can be attached once; a second attempt fails with apikit.ErrResourceExists
// and leaves the first resource in place.
func (a *API) AddResource(name string, ctor Constructor[any]) (*API, error) {
	if name == "" {
		return a, apikit.ErrResourceNameRequired
	}

	a.mu.RLock()
	_, exists := a.resources[name]
	a.mu.RUnlock()

	if exists {
		return a, fmt.Errorf("%w: %s", apikit.ErrResourceExists, name)
	}

	resource := ctor(a)

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.resources[name]; exists {
		return a, fmt.Errorf("%w: %s", apikit.ErrResourceExists, name)
	}

	a.resources[name] = resource
	a.names = append(a.names, name)

	return a, nil
}

// MustAddResource is AddResource that panics on error.
func (a *API) MustAddResource(name string, ctor Constructor[any]) *API {
	_, err := a.AddResource(name, ctor)
	if err != nil {
		panic(err)
	}

	return a
}

// Resource returns the resource attached under name.
func (a *API) Resource(name string) (any, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	resource, ok := a.resources[name]

	return resource, ok
}

// ResourceNames returns attached names in attachment order.
func (a *API) ResourceNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return append([]string(nil), a.names...)
}

// Attach builds a resource with ctor, attaches it under name and returns it
// with its concrete type.
func Attach[R any](api *API, name string, ctor Constructor[R]) (R, error) {
	var resource R

	_, err := api.AddResource(name, func(a *API) any {
		resource = ctor(a)

		return resource
	})
	if err != nil {
		var zero R

		return zero, err
	}

	return resource, nil
}

// Lookup returns the resource attached under name as R.
func Lookup[R any](api *API, name string) (R, error) {
	var zero R

	resource, ok := api.Resource(name)
	if !ok {
		return zero, fmt.Errorf("%w: %s", apikit.ErrResourceNotFound, name)
	}

	typed, ok := resource.(R)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %T", apikit.ErrResourceType, name, resource)
	}

	return typed, nil
}
