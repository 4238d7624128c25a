// Package http is the transport behind every API: it turns an apikit.Request
// into a network call, running the interceptor pipelines around it.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/fivetwenty-io/apikit/internal/constants"
	"github.com/fivetwenty-io/apikit/pkg/apikit"
	"github.com/hashicorp/go-retryablehttp"
)

// Request and Response are the transport's call types.
type (
	Request  = apikit.Request
	Response = apikit.Response
)

type debugKey struct{}

// Client executes calls against one configuration snapshot.
type Client struct {
	config       apikit.Config
	interceptors *apikit.Interceptors
	httpClient   *retryablehttp.Client
	logger       apikit.Logger
	debug        bool
	userAgent    string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for debug output.
func WithLogger(logger apikit.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDebug enables request/response logging for every call.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header when the configuration has none.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient.HTTPClient = httpClient
		}
	}
}

// NewClient creates a transport from a snapshot of config. Nil interceptors
// get fresh, empty pipelines.
func NewClient(config apikit.Config, interceptors *apikit.Interceptors, opts ...Option) *Client {
	if interceptors == nil {
		interceptors = apikit.NewInterceptors()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.RetryMax = 0
	retryClient.CheckRetry = neverRetry
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := &Client{
		config:       config.Clone(),
		interceptors: interceptors,
		httpClient:   retryClient,
		logger:       apikit.NoopLogger{},
		debug:        config.Debug,
		userAgent:    constants.DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	retryClient.RequestLogHook = client.logRequest
	retryClient.ResponseLogHook = client.logResponse

	return client
}

// Config returns a copy of the configuration the client was built from.
func (c *Client) Config() apikit.Config {
	return c.config.Clone()
}

// Interceptors returns the pipelines run by this client.
func (c *Client) Interceptors() *apikit.Interceptors {
	return c.interceptors
}

// Do runs req through the request pipeline, sends it, and runs the result
// through the response pipeline. req.Config is treated as a per-call
// override of the client's configuration. A request-side rejection skips the
// network call but still reaches the response failure handlers.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	call := *req
	call.Config = c.config.Merge(req.Config)

	if call.Path == "" {
		call.Path = "/"
	}

	prepared, err := c.interceptors.Request.Run(ctx, &call, nil)
	if err != nil {
		rejected := &apikit.TransportError{
			Method: call.Method,
			URL:    call.Path,
			Err:    fmt.Errorf("request interceptor failed: %w", err),
		}

		return c.interceptors.Response.Run(ctx, nil, rejected)
	}

	resp, err := c.send(ctx, prepared)

	return c.interceptors.Response.Run(ctx, resp, err)
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

func (c *Client) send(ctx context.Context, req *Request) (*Response, error) {
	target, err := c.buildURL(req)
	if err != nil {
		return nil, &apikit.TransportError{Method: req.Method, URL: req.Path, Err: err}
	}

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, &apikit.TransportError{Method: req.Method, URL: target, Err: err}
	}

	if req.Config.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, req.Config.Timeout)
		defer cancel()
	}

	if req.Config.Debug {
		ctx = context.WithValue(ctx, debugKey{}, true)
	}

	var rawBody interface{}
	if body != nil {
		rawBody = body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, target, rawBody)
	if err != nil {
		return nil, &apikit.TransportError{Method: req.Method, URL: target, Err: err}
	}

	c.setHeaders(httpReq.Header, req, body != nil)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if httpResp != nil {
			_ = httpResp.Body.Close()
		}

		return nil, &apikit.TransportError{Method: req.Method, URL: target, Err: err}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &apikit.TransportError{
			Method:     req.Method,
			URL:        target,
			StatusCode: httpResp.StatusCode,
			Headers:    httpResp.Header,
			Err:        fmt.Errorf("reading response body: %w", err),
		}
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       data,
		Request:    req,
	}

	if httpResp.StatusCode >= http.StatusBadRequest {
		return nil, &apikit.TransportError{
			Method:     req.Method,
			URL:        target,
			StatusCode: httpResp.StatusCode,
			Headers:    httpResp.Header,
			Body:       data,
			Response:   resp,
		}
	}

	return resp, nil
}

func (c *Client) buildURL(req *Request) (string, error) {
	target := req.Path
	if !isAbsoluteURL(target) {
		base := strings.TrimSuffix(req.Config.BaseURL, "/")
		target = base + "/" + strings.TrimPrefix(target, "/")
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parsing request URL: %w", err)
	}

	query := parsed.Query()

	for key, value := range req.Config.Params {
		query.Set(key, value)
	}

	params, err := EncodeParams(req.Params)
	if err != nil {
		return "", err
	}

	for key, values := range params {
		query[key] = values
	}

	for key, values := range req.Query {
		query[key] = append([]string(nil), values...)
	}

	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}

func (c *Client) setHeaders(header http.Header, req *Request, hasBody bool) {
	header.Set(constants.HeaderAccept, constants.ContentTypeJSON)

	if hasBody {
		header.Set(constants.HeaderContentType, constants.ContentTypeJSON)
	}

	userAgent := req.Config.UserAgent
	if userAgent == "" {
		userAgent = c.userAgent
	}

	header.Set(constants.HeaderUserAgent, userAgent)

	for key, value := range req.Config.Headers {
		header.Set(key, value)
	}
}

func (c *Client) debugEnabled(ctx context.Context) bool {
	if c.debug {
		return true
	}

	enabled, _ := ctx.Value(debugKey{}).(bool)

	return enabled
}

func (c *Client) logRequest(_ retryablehttp.Logger, req *http.Request, attempt int) {
	if !c.debugEnabled(req.Context()) {
		return
	}

	c.logger.Debug("HTTP Request", map[string]interface{}{
		"method":  req.Method,
		"url":     req.URL.String(),
		"attempt": attempt,
	})
}

func (c *Client) logResponse(_ retryablehttp.Logger, resp *http.Response) {
	if resp.Request == nil || !c.debugEnabled(resp.Request.Context()) {
		return
	}

	c.logger.Debug("HTTP Response", map[string]interface{}{
		"method":      resp.Request.Method,
		"url":         resp.Request.URL.String(),
		"status_code": resp.StatusCode,
	})
}

func neverRetry(ctx context.Context, _ *http.Response, _ error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	return false, nil
}

func isAbsoluteURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

func encodeBody(body any) ([]byte, error) {
	if value := reflect.ValueOf(body); value.Kind() == reflect.Pointer && value.IsNil() {
		return nil, nil
	}

	switch typed := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return typed, nil
	case string:
		return []byte(typed), nil
	case io.Reader:
		data, err := io.ReadAll(typed)
		if err != nil {
			return nil, fmt.Errorf("reading request body: %w", err)
		}

		return data, nil
	default:
		var buf bytes.Buffer

		err := json.NewEncoder(&buf).Encode(typed)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}

		return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
	}
}
