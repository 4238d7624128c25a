// Package rest provides the API type, which owns a configured transport, and
// the generic Resource facade built on top of it.
//
// # Getting an API
//
//	store := apikit.NewConfigStore(apikit.Config{BaseURL: "https://api.example.com"})
//	api := rest.New(store)
//
//	resp, err := rest.Get[[]Post](ctx, api, "/posts", map[string]string{"_limit": "5"})
//
// Methods cannot take type parameters, so the typed verbs are package
// functions (Get, Post, Put, Patch, Delete); the API methods of the same
// names return the raw apikit.Response.
//
// # Reconfiguration
//
// SetConfig and SetConfigFunc never modify the receiver. They return a new API
// with its own transport that keeps running the same interceptor pipelines:
//
//	github := api.SetConfigFunc(func(cfg apikit.Config) apikit.Config {
//	  cfg.BaseURL = "https://api.github.com"
//	  return cfg
//	})
//
// # Resources
//
// A Resource is bound to one API and one path. Resources are attached to an
// API once per name:
//
//	_, err := api.AddResource("posts", rest.Bind(NewPostResource))
//	posts, err := rest.Lookup[*PostResource](api, "posts")
//
// Reconfigure rebuilds a resource of the same concrete type on a reconfigured
// API, using the constructor passed to it.
package rest
