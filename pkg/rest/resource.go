package rest

import (
	"context"
	"fmt"
	"net/url"

	"github.com/fivetwenty-io/apikit/pkg/apikit"
)

// Bound is anything tied to an API and a configuration snapshot. Every
// *Resource is Bound, and so is every struct embedding one.
type Bound interface {
	API() *API
	Config() *apikit.ConfigStore
}

// Resource is a typed CRUD facade over one endpoint path.
//
// D is the entity, P the create/update payload, Q the query parameters and C
// the list result. Concrete resources usually embed a *Resource and fix the
// path in their constructor:
//
//	type PostResource struct {
//		*rest.Resource[Post, PostPayload, SearchParams, []Post]
//	}
//
//	func NewPostResource(api *rest.API) *PostResource {
//		return &PostResource{rest.NewResource[Post, PostPayload, SearchParams, []Post](api, "/posts")}
//	}
type Resource[D, P, Q, C any] struct {
	api    *API
	config *apikit.ConfigStore
	path   string
}

// Collection is a Resource listing a plain slice of D.
type Collection[D, P, Q any] = Resource[D, P, Q, []D]

// NewResource binds a resource to api at path. The API's configuration store
// is captured now; later reconfiguration of other APIs is not observed.
func NewResource[D, P, Q, C any](api *API, path string) *Resource[D, P, Q, C] {
	return &Resource[D, P, Q, C]{
		api:    api,
		config: api.Config(),
		path:   path,
	}
}

// NewCollection is NewResource for a Collection.
func NewCollection[D, P, Q any](api *API, path string) *Collection[D, P, Q] {
	return NewResource[D, P, Q, []D](api, path)
}

// API returns the owning API.
func (r *Resource[D, P, Q, C]) API() *API {
	return r.api
}

// Config returns the configuration captured at construction.
func (r *Resource[D, P, Q, C]) Config() *apikit.ConfigStore {
	return r.config
}

// URL returns the endpoint path or apikit.ErrMissingEndpoint.
func (r *Resource[D, P, Q, C]) URL() (string, error) {
	if r.path == "" {
		return "", apikit.ErrMissingEndpoint
	}

	return r.path, nil
}

func (r *Resource[D, P, Q, C]) itemURL(id any) (string, error) {
	path, err := r.URL()
	if err != nil {
		return "", err
	}

	return path + "/" + url.PathEscape(fmt.Sprint(id)), nil
}

// List fetches the collection: GET <path>.
func (r *Resource[D, P, Q, C]) List(ctx context.Context, params *Q, opts ...RequestOption) (*Response[C], error) {
	path, err := r.URL()
	if err != nil {
		return nil, err
	}

	return Get[C](ctx, r.api, path, params, opts...)
}

// All is List.
func (r *Resource[D, P, Q, C]) All(ctx context.Context, params *Q, opts ...RequestOption) (*Response[C], error) {
	return r.List(ctx, params, opts...)
}

// GetByID fetches one entity: GET <path>/<id>.
func (r *Resource[D, P, Q, C]) GetByID(ctx context.Context, id any, params *Q, opts ...RequestOption) (*Response[D], error) {
	path, err := r.itemURL(id)
	if err != nil {
		return nil, err
	}

	return Get[D](ctx, r.api, path, params, opts...)
}

// Create sends payload: POST <path>.
func (r *Resource[D, P, Q, C]) Create(ctx context.Context, payload P, opts ...RequestOption) (*Response[D], error) {
	path, err := r.URL()
	if err != nil {
		return nil, err
	}

	return Post[D](ctx, r.api, path, payload, opts...)
}

// Update replaces an entity: PUT <path>/<id>.
func (r *Resource[D, P, Q, C]) Update(ctx context.Context, id any, payload P, opts ...RequestOption) (*Response[D], error) {
	path, err := r.itemURL(id)
	if err != nil {
		return nil, err
	}

	return Put[D](ctx, r.api, path, payload, opts...)
}

// Patch partially updates an entity: PATCH <path>/<id>.
func (r *Resource[D, P, Q, C]) Patch(ctx context.Context, id any, payload P, opts ...RequestOption) (*Response[D], error) {
	path, err := r.itemURL(id)
	if err != nil {
		return nil, err
	}

	return Patch[D](ctx, r.api, path, payload, opts...)
}

// Delete removes an entity: DELETE <path>/<id>. A nil payload sends no body.
func (r *Resource[D, P, Q, C]) Delete(ctx context.Context, id any, payload *P, opts ...RequestOption) (*Response[D], error) {
	path, err := r.itemURL(id)
	if err != nil {
		return nil, err
	}

	var body any
	if payload != nil {
		body = payload
	}

	return Delete[D](ctx, r.api, path, body, opts...)
}

// SetConfig returns a new plain Resource on the same path, bound to an API
// reconfigured with cfg. Types embedding a Resource should use Reconfigure
// to get their own type back.
func (r *Resource[D, P, Q, C]) SetConfig(cfg apikit.Config) *Resource[D, P, Q, C] {
	return NewResource[D, P, Q, C](r.api.SetConfig(cfg), r.path)
}

// SetConfigFunc is SetConfig with the configuration derived by fn from the
// captured one.
func (r *Resource[D, P, Q, C]) SetConfigFunc(fn func(apikit.Config) apikit.Config) *Resource[D, P, Q, C] {
	return r.SetConfig(fn(r.config.Snapshot()))
}

// Reconfigure rebuilds r with ctor on an API reconfigured with cfg. The
// result has r's concrete type; r and its API are not modified.
func Reconfigure[R Bound](r R, ctor Constructor[R], cfg apikit.Config) R {
	return ctor(r.API().SetConfig(cfg))
}

// ReconfigureFunc is Reconfigure with the configuration derived by fn from
// r's captured configuration.
func ReconfigureFunc[R Bound](r R, ctor Constructor[R], fn func(apikit.Config) apikit.Config) R {
	return Reconfigure(r, ctor, fn(r.Config().Snapshot()))
}
