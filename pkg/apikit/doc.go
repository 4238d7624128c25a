// Package apikit holds the contracts shared by every layer of the client:
// the transport configuration record and its store, the call types seen by
// interceptors, the interceptor pipelines, and the error types.
//
// # Configuration
//
// Config is a plain record (base URL, headers, timeout, default query
// parameters, user agent, debug flag, and an open Options map). ConfigStore
// wraps one record and exposes it by key:
//
//	store := apikit.NewConfigStore(apikit.Config{
//	  BaseURL: "https://jsonplaceholder.typicode.com",
//	  Timeout: 10 * time.Second,
//	})
//	store.SetHeaders("Content-Type", "application/json")
//
// Value returns the live record, so writes through it are visible to every
// holder of the store. Snapshot and Clone give detached copies.
//
// # Interceptors
//
// Interceptors carries two ordered pipelines. Each registration is a pair of
// handlers: one for the success path and one for the failure path.
//
//	interceptors.Request.Use(apikit.LoggingInterceptor(logger), nil)
//	interceptors.Response.Use(apikit.LoggingResponseInterceptor(logger))
//
// Handlers run in registration order. A success handler may reject by
// returning an error; a failure handler may recover by returning a value.
//
// # Errors
//
// ErrMissingEndpoint marks a resource used without an endpoint path.
// TransportError wraps every failure raised while executing a call; use
// StatusCode, IsStatus and IsNotFound to branch on it.
package apikit
