package apikit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handler transforms the value flowing through a pipeline.
type Handler[T any] func(ctx context.Context, value *T) (*T, error)

// ErrorHandler receives the error flowing through a pipeline. Returning a
// non-nil value recovers; returning an error keeps the pipeline failed.
type ErrorHandler[T any] func(ctx context.Context, err error) (*T, error)

// Request pipeline handler types.
type (
	RequestHandler      = Handler[Request]
	RequestErrorHandler = ErrorHandler[Request]
)

// Response pipeline handler types.
type (
	ResponseHandler      = Handler[Response]
	ResponseErrorHandler = ErrorHandler[Response]
)

type entry[T any] struct {
	id        int
	onSuccess Handler[T]
	onFailure ErrorHandler[T]
}

// Pipeline is an ordered, append-only list of handler pairs.
type Pipeline[T any] struct {
	mu      sync.RWMutex
	nextID  int
	entries []entry[T]
}

// RequestPipeline runs before a request is sent.
type RequestPipeline = Pipeline[Request]

// ResponsePipeline runs after a response or a failure is received.
type ResponsePipeline = Pipeline[Response]

// Use registers a handler pair and returns an id for Eject. Either handler
// may be nil, in which case that state passes through unchanged.
func (p *Pipeline[T]) Use(onSuccess Handler[T], onFailure ErrorHandler[T]) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.entries = append(p.entries, entry[T]{id: id, onSuccess: onSuccess, onFailure: onFailure})

	return id
}

// Eject removes the handler pair registered under id.
func (p *Pipeline[T]) Eject(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, e := range p.entries {
		if e.id == id {
			p.entries = append(p.entries[:i:i], p.entries[i+1:]...)

			return
		}
	}
}

// Clear removes every handler pair.
func (p *Pipeline[T]) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.entries = nil
}

// Len returns the number of registered handler pairs.
func (p *Pipeline[T]) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.entries)
}

// Clone returns a detached pipeline holding the same handlers.
func (p *Pipeline[T]) Clone() *Pipeline[T] {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return &Pipeline[T]{
		nextID:  p.nextID,
		entries: append([]entry[T](nil), p.entries...),
	}
}

// Run executes the handlers in registration order starting from value or
// err. A handler returning a nil value without an error keeps the previous
// value.
func (p *Pipeline[T]) Run(ctx context.Context, value *T, err error) (*T, error) {
	p.mu.RLock()
	entries := append([]entry[T](nil), p.entries...)
	p.mu.RUnlock()

	for _, e := range entries {
		if err != nil {
			if e.onFailure == nil {
				continue
			}

			next, handlerErr := e.onFailure(ctx, err)
			if handlerErr != nil {
				err = handlerErr

				continue
			}

			if next != nil {
				value, err = next, nil
			}

			continue
		}

		if e.onSuccess == nil {
			continue
		}

		next, handlerErr := e.onSuccess(ctx, value)
		if handlerErr != nil {
			value, err = nil, fmt.Errorf("%w: %w", ErrInterceptorRejected, handlerErr)

			continue
		}

		if next != nil {
			value = next
		}
	}

	return value, err
}

// Interceptors holds the request and response pipelines of a transport.
type Interceptors struct {
	Request  *RequestPipeline
	Response *ResponsePipeline
}

// NewInterceptors creates empty pipelines.
func NewInterceptors() *Interceptors {
	return &Interceptors{
		Request:  &RequestPipeline{},
		Response: &ResponsePipeline{},
	}
}

// Clone returns detached copies of both pipelines.
func (i *Interceptors) Clone() *Interceptors {
	return &Interceptors{
		Request:  i.Request.Clone(),
		Response: i.Response.Clone(),
	}
}

// Common Interceptors

// LoggingInterceptor logs requests.
func LoggingInterceptor(logger Logger) RequestHandler {
	return func(ctx context.Context, req *Request) (*Request, error) {
		logger.Debug("API Request", map[string]interface{}{
			"method": req.Method,
			"path":   req.Path,
		})

		return req, nil
	}
}

// LoggingResponseInterceptor logs responses and failures.
func LoggingResponseInterceptor(logger Logger) (ResponseHandler, ResponseErrorHandler) {
	onSuccess := func(ctx context.Context, resp *Response) (*Response, error) {
		fields := map[string]interface{}{
			"status_code": resp.StatusCode,
		}

		if resp.Request != nil {
			fields["method"] = resp.Request.Method
			fields["path"] = resp.Request.Path
		}

		logger.Debug("API Response", fields)

		return resp, nil
	}

	onFailure := func(ctx context.Context, err error) (*Response, error) {
		logger.Error("API Response Error", map[string]interface{}{
			"status_code": StatusCode(err),
			"error":       err.Error(),
		})

		return nil, err
	}

	return onSuccess, onFailure
}

// HeaderInterceptor adds custom headers to requests.
func HeaderInterceptor(headers map[string]string) RequestHandler {
	return func(ctx context.Context, req *Request) (*Request, error) {
		for key, value := range headers {
			req.SetHeader(key, value)
		}

		return req, nil
	}
}

// RequestIDHeader is the header set by RequestIDInterceptor.
const RequestIDHeader = "X-Request-Id"

// RequestIDInterceptor tags each request with a random id unless the call
// already carries one.
func RequestIDInterceptor() RequestHandler {
	return func(ctx context.Context, req *Request) (*Request, error) {
		if _, ok := req.Config.Headers[RequestIDHeader]; ok {
			return req, nil
		}

		req.SetHeader(RequestIDHeader, uuid.NewString())

		return req, nil
	}
}

// Metrics holds call statistics for one endpoint.
type Metrics struct {
	TotalRequests   int64
	TotalErrors     int64
	TotalLatency    time.Duration
	AverageLatency  time.Duration
	LastRequestTime time.Time
}

// MetricsCollector collects API metrics.
type MetricsCollector struct {
	mu       sync.Mutex
	metrics  map[string]*Metrics
	onChange func(endpoint string, metrics Metrics)
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics: make(map[string]*Metrics),
	}
}

// SetOnChange sets a callback for when metrics change.
func (m *MetricsCollector) SetOnChange(fn func(endpoint string, metrics Metrics)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.onChange = fn
}

// GetMetrics returns a copy of the metrics for an endpoint ("METHOD path").
func (m *MetricsCollector) GetMetrics(endpoint string) (Metrics, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics, ok := m.metrics[endpoint]
	if !ok {
		return Metrics{}, false
	}

	return *metrics, true
}

const metricsStartKey = "start_time"

// MetricsRequestInterceptor records request start time.
func MetricsRequestInterceptor(collector *MetricsCollector) RequestHandler {
	return func(ctx context.Context, req *Request) (*Request, error) {
		if req.Metadata == nil {
			req.Metadata = make(map[string]interface{})
		}

		req.Metadata[metricsStartKey] = time.Now()

		return req, nil
	}
}

// MetricsResponseInterceptor records response metrics on both paths.
func MetricsResponseInterceptor(collector *MetricsCollector) (ResponseHandler, ResponseErrorHandler) {
	onSuccess := func(ctx context.Context, resp *Response) (*Response, error) {
		collector.record(resp.Request, resp.StatusCode >= http.StatusBadRequest)

		return resp, nil
	}

	onFailure := func(ctx context.Context, err error) (*Response, error) {
		transportErr := &TransportError{}
		if errors.As(err, &transportErr) && transportErr.Response != nil {
			collector.record(transportErr.Response.Request, true)
		}

		return nil, err
	}

	return onSuccess, onFailure
}

func (m *MetricsCollector) record(req *Request, failed bool) {
	if req == nil {
		return
	}

	endpoint := fmt.Sprintf("%s %s", req.Method, req.Path)

	m.mu.Lock()

	metrics, ok := m.metrics[endpoint]
	if !ok {
		metrics = &Metrics{}
		m.metrics[endpoint] = metrics
	}

	metrics.TotalRequests++
	metrics.LastRequestTime = time.Now()

	if startTime, ok := req.Metadata[metricsStartKey].(time.Time); ok {
		metrics.TotalLatency += time.Since(startTime)
		metrics.AverageLatency = metrics.TotalLatency / time.Duration(metrics.TotalRequests)
	}

	if failed {
		metrics.TotalErrors++
	}

	snapshot := *metrics
	onChange := m.onChange

	m.mu.Unlock()

	if onChange != nil {
		onChange(endpoint, snapshot)
	}
}
