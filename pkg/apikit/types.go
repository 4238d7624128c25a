package apikit

import (
	"maps"
	"net/http"
	"net/url"
)

// Request is an in-flight call as seen by request interceptors.
type Request struct {
	Method string
	// Path is joined to Config.BaseURL unless it is an absolute URL.
	Path string
	// Params is the caller's query parameter value, encoded by the transport.
	Params any
	// Query holds already encoded parameters, added after Params.
	Query url.Values
	// Body is JSON encoded unless it is []byte, string or an io.Reader.
	Body any
	// Config is the effective configuration for this call only: the store
	// defaults with the per-call override merged on top.
	Config   Config
	Metadata map[string]interface{}
}

// SetHeader sets a header on this call only.
func (r *Request) SetHeader(key, value string) {
	headers := make(map[string]string, len(r.Config.Headers)+1)
	maps.Copy(headers, r.Config.Headers)
	headers[key] = value
	r.Config.Headers = headers
}

// Response is a completed call as seen by response interceptors.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	// Request is the request after the request pipeline ran.
	Request *Request
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// NoopLogger discards everything.
type NoopLogger struct{}

func (NoopLogger) Debug(string, map[string]interface{}) {}
func (NoopLogger) Info(string, map[string]interface{})  {}
func (NoopLogger) Warn(string, map[string]interface{})  {}
func (NoopLogger) Error(string, map[string]interface{}) {}
