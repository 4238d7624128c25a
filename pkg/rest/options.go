package rest

import (
	"net/http"
	"time"

	"github.com/fivetwenty-io/apikit/pkg/apikit"
)

// Option configures an API.
type Option func(*settings)

type settings struct {
	interceptors *apikit.Interceptors
	logger       apikit.Logger
	httpClient   *http.Client
}

// WithInterceptors adopts existing pipelines instead of creating new ones.
// The pipelines are shared by reference with their previous owner.
func WithInterceptors(interceptors *apikit.Interceptors) Option {
	return func(s *settings) {
		s.interceptors = interceptors
	}
}

// WithLogger sets the logger handed to the transport.
func WithLogger(logger apikit.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithHTTPClient sets the *http.Client used by the transport.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(s *settings) {
		s.httpClient = httpClient
	}
}

// RequestOption adjusts a single call.
type RequestOption func(*apikit.Request)

// WithConfig merges cfg over the API defaults for this call only.
func WithConfig(cfg apikit.Config) RequestOption {
	return func(r *apikit.Request) {
		r.Config = r.Config.Merge(cfg)
	}
}

// WithHeader sets a header for this call only.
func WithHeader(key, value string) RequestOption {
	return func(r *apikit.Request) {
		r.SetHeader(key, value)
	}
}

// WithQuery adds a query parameter for this call only.
func WithQuery(key, value string) RequestOption {
	return func(r *apikit.Request) {
		if r.Query == nil {
			r.Query = make(map[string][]string)
		}

		r.Query.Add(key, value)
	}
}

// WithTimeout overrides the configured timeout for this call only.
func WithTimeout(timeout time.Duration) RequestOption {
	return func(r *apikit.Request) {
		r.Config.Timeout = timeout
	}
}

// WithMetadata attaches a value visible to interceptors.
func WithMetadata(key string, value interface{}) RequestOption {
	return func(r *apikit.Request) {
		if r.Metadata == nil {
			r.Metadata = make(map[string]interface{})
		}

		r.Metadata[key] = value
	}
}
