package rest

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/fivetwenty-io/apikit/internal/constants"
	"github.com/fivetwenty-io/apikit/pkg/apikit"
)

const defaultBatchConcurrency = 5

// BatchOperation represents a single call in a batch.
type BatchOperation struct {
	ID       string
	Request  *apikit.Request
	Callback func(result *BatchResult)
}

// BatchResult represents the result of a batch operation.
type BatchResult struct {
	ID       string
	Success  bool
	Response *apikit.Response
	Error    error
	Duration time.Duration
}

// BatchExecutor runs independent calls against one API with bounded
// concurrency. Each call goes through the API's interceptor pipelines.
type BatchExecutor struct {
	api         *API
	concurrency int
	timeout     time.Duration
}

// NewBatchExecutor creates a new batch executor. A non-positive concurrency
// selects the default of 5.
func NewBatchExecutor(api *API, concurrency int) *BatchExecutor {
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}

	return &BatchExecutor{
		api:         api,
		concurrency: concurrency,
		timeout:     constants.DefaultHTTPTimeout,
	}
}

// SetTimeout sets the per-operation timeout. A non-positive timeout leaves
// only the caller's context in charge.
func (b *BatchExecutor) SetTimeout(timeout time.Duration) {
	b.timeout = timeout
}

// Execute runs every operation and returns the results in input order. A
// failed operation is reported in its result, not as an error. Operations
// still waiting for a slot when ctx ends fail with ctx's error.
func (b *BatchExecutor) Execute(ctx context.Context, operations []BatchOperation) []BatchResult {
	results := make([]BatchResult, len(operations))

	var waitGroup sync.WaitGroup

	semaphore := make(chan struct{}, b.concurrency)

	for index, operation := range operations {
		waitGroup.Add(1)

		go func() {
			defer waitGroup.Done()

			start := time.Now()

			var result *BatchResult

			select {
			case semaphore <- struct{}{}:
				result = b.run(ctx, operation)

				<-semaphore
			case <-ctx.Done():
				result = &BatchResult{ID: operation.ID, Error: ctx.Err()}
			}

			result.Duration = time.Since(start)
			results[index] = *result

			if operation.Callback != nil {
				operation.Callback(result)
			}
		}()
	}

	waitGroup.Wait()

	return results
}

func (b *BatchExecutor) run(ctx context.Context, operation BatchOperation) *BatchResult {
	if b.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	return b.executeOperation(ctx, operation)
}

func (b *BatchExecutor) executeOperation(ctx context.Context, operation BatchOperation) *BatchResult {
	result := &BatchResult{ID: operation.ID}

	if operation.Request == nil {
		result.Error = apikit.ErrMissingEndpoint

		return result
	}

	req := *operation.Request

	resp, err := b.api.Do(ctx, &req)
	result.Success = err == nil
	result.Response = resp
	result.Error = err

	return result
}

// BatchBuilder helps build batch operations.
type BatchBuilder struct {
	operations []BatchOperation
}

// NewBatchBuilder creates a new batch builder.
func NewBatchBuilder() *BatchBuilder {
	return &BatchBuilder{}
}

// AddGet adds a GET operation.
func (b *BatchBuilder) AddGet(id, path string, params any) *BatchBuilder {
	return b.add(id, &apikit.Request{Method: http.MethodGet, Path: path, Params: params})
}

// AddPost adds a POST operation.
func (b *BatchBuilder) AddPost(id, path string, body any) *BatchBuilder {
	return b.add(id, &apikit.Request{Method: http.MethodPost, Path: path, Body: body})
}

// AddPut adds a PUT operation.
func (b *BatchBuilder) AddPut(id, path string, body any) *BatchBuilder {
	return b.add(id, &apikit.Request{Method: http.MethodPut, Path: path, Body: body})
}

// AddPatch adds a PATCH operation.
func (b *BatchBuilder) AddPatch(id, path string, body any) *BatchBuilder {
	return b.add(id, &apikit.Request{Method: http.MethodPatch, Path: path, Body: body})
}

// AddDelete adds a DELETE operation without a body.
func (b *BatchBuilder) AddDelete(id, path string) *BatchBuilder {
	return b.add(id, &apikit.Request{Method: http.MethodDelete, Path: path})
}

// AddOperation adds a prepared operation.
func (b *BatchBuilder) AddOperation(operation BatchOperation) *BatchBuilder {
	b.operations = append(b.operations, operation)

	return b
}

// Build returns the operations added so far.
func (b *BatchBuilder) Build() []BatchOperation {
	return append([]BatchOperation(nil), b.operations...)
}

func (b *BatchBuilder) add(id string, req *apikit.Request) *BatchBuilder {
	return b.AddOperation(BatchOperation{ID: id, Request: req})
}
