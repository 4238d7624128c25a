package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fivetwenty-io/apikit/internal/constants"
	"github.com/fivetwenty-io/apikit/pkg/apikit"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seenRequest struct {
	method string
	path   string
	query  string
	body   string
	header http.Header
}

// newTestServer serves a tiny posts API and records every request.
func newTestServer(t *testing.T) (*httptest.Server, func() seenRequest) {
	t.Helper()

	var (
		mu   sync.Mutex
		last seenRequest
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		mu.Lock()
		last = seenRequest{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, body: string(body), header: r.Header.Clone()}
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.URL.Path == "/posts" && r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`[{"id":1,"title":"first"},{"id":2,"title":"second"}]`))
		case r.URL.Path == "/posts" && r.Method == http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write(body)
		case strings.HasPrefix(r.URL.Path, "/posts/"):
			_, _ = w.Write([]byte(`{"id":1,"title":"first"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not found"}`))
		}
	}))
	t.Cleanup(server.Close)

	return server, func() seenRequest {
		mu.Lock()
		defer mu.Unlock()

		return last
	}
}

// useViper installs settings into the global viper instance for one test.
func useViper(t *testing.T, settings map[string]any) {
	t.Helper()

	viper.Reset()

	for key, value := range settings {
		viper.Set(key, value)
	}

	t.Cleanup(viper.Reset)
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func TestParseKeyValues(t *testing.T) {
	values, err := parseKeyValues([]string{"a=1", "b=x=y", " c =", "a=2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "2", "b": "x=y", "c": ""}, values)

	_, err = parseKeyValues([]string{"novalue"})
	require.ErrorIs(t, err, ErrInvalidKeyValue)

	_, err = parseKeyValues([]string{"=value"})
	require.ErrorIs(t, err, ErrInvalidKeyValue)
}

func TestConfigFromViper(t *testing.T) {
	v := viper.New()
	v.Set(KeyBaseURL, "https://jsonplaceholder.typicode.com")
	v.Set(KeyHeaders, map[string]any{"Accept": "application/json", "X-Env": "prod"})
	v.Set(KeyHeader, []string{"X-Env=test"})
	v.Set(KeyParams, map[string]any{"lang": "en"})
	v.Set(KeyTimeout, "5s")
	v.Set(KeyUserAgent, "agent/2")

	cfg, err := ConfigFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "https://jsonplaceholder.typicode.com", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "agent/2", cfg.UserAgent)
	assert.Equal(t, map[string]string{"lang": "en"}, cfg.Params)
	assert.Equal(t, "test", cfg.Headers["X-Env"])
	assert.Equal(t, "application/json", cfg.Headers["Accept"])
}

func TestConfigFromViper_Defaults(t *testing.T) {
	cfg, err := ConfigFromViper(viper.New())
	require.ErrorIs(t, err, ErrBaseURLRequired)
	assert.Equal(t, constants.DefaultHTTPTimeout, cfg.Timeout)
}

func TestNewAPI_AttachesConfiguredResources(t *testing.T) {
	v := viper.New()
	v.Set(KeyBaseURL, "https://example.com")
	v.Set(KeyResources, map[string]any{"users": "/users", "posts": "/posts"})

	api, err := NewAPI(v, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, []string{"posts", "users"}, api.ResourceNames())
	assert.Equal(t, 1, api.Interceptors().Request.Len())

	v.Set(KeyVerbose, true)

	api, err = NewAPI(v, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 2, api.Interceptors().Request.Len())
	assert.Equal(t, 1, api.Interceptors().Response.Len())
}

func TestRequestCommand(t *testing.T) {
	server, last := newTestServer(t)
	useViper(t, map[string]any{
		KeyBaseURL: server.URL,
		KeyHeaders: map[string]any{"Authorization": "Bearer abc"},
		KeyOutput:  constants.OutputFormatJSON,
	})

	out, err := execute(t, NewRequestCommand(), "get", "/posts", "--query", "_limit=2")
	require.NoError(t, err)

	var posts []map[string]any

	require.NoError(t, json.Unmarshal([]byte(out), &posts))
	assert.Len(t, posts, 2)

	seen := last()
	assert.Equal(t, http.MethodGet, seen.method)
	assert.Equal(t, "_limit=2", seen.query)
	assert.Equal(t, "Bearer abc", seen.header.Get("Authorization"))
	assert.Len(t, seen.header.Get(apikit.RequestIDHeader), 36)

	_, err = execute(t, NewRequestCommand(), "post", "/posts", "--data", `{"title":"hello"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"hello"}`, last().body)
}

func TestRequestCommand_Errors(t *testing.T) {
	server, _ := newTestServer(t)
	useViper(t, map[string]any{KeyBaseURL: server.URL})

	_, err := execute(t, NewRequestCommand(), "head", "/posts")
	require.ErrorIs(t, err, ErrUnsupportedMethod)

	_, err = execute(t, NewRequestCommand(), "post", "/posts", "--data", "{not json")
	require.ErrorIs(t, err, ErrInvalidData)

	_, err = execute(t, NewRequestCommand(), "get", "/missing")
	require.Error(t, err)
	assert.True(t, apikit.IsNotFound(err))
}

func TestResourceCommand(t *testing.T) {
	server, last := newTestServer(t)
	useViper(t, map[string]any{
		KeyBaseURL:   server.URL,
		KeyResources: map[string]any{"posts": "/posts"},
		KeyOutput:    constants.OutputFormatTable,
	})

	out, err := execute(t, NewResourceCommand(), "posts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "second")

	_, err = execute(t, NewResourceCommand(), "posts", "get", "1")
	require.NoError(t, err)
	assert.Equal(t, "/posts/1", last().path)

	_, err = execute(t, NewResourceCommand(), "posts", "update", "1", "--data", `{"title":"replaced"}`)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, last().method)

	_, err = execute(t, NewResourceCommand(), "posts", "patch", "1", "--data", `{"title":"renamed"}`)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, last().method)

	_, err = execute(t, NewResourceCommand(), "posts", "delete", "1")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, last().method)
	assert.Empty(t, last().body)

	_, err = execute(t, NewResourceCommand(), "posts", "create", "--data", `{"title":"new"}`)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, last().method)
}

func TestResourceCommand_Errors(t *testing.T) {
	server, _ := newTestServer(t)
	useViper(t, map[string]any{
		KeyBaseURL:   server.URL,
		KeyResources: map[string]any{"posts": "/posts"},
	})

	_, err := execute(t, NewResourceCommand(), "comments", "list")
	require.ErrorIs(t, err, apikit.ErrResourceNotFound)

	_, err = execute(t, NewResourceCommand(), "posts", "get")
	require.ErrorIs(t, err, ErrIDRequired)

	_, err = execute(t, NewResourceCommand(), "posts", "create")
	require.ErrorIs(t, err, ErrDataRequired)

	_, err = execute(t, NewResourceCommand(), "posts", "archive", "1")
	require.ErrorIs(t, err, ErrUnsupportedAction)
}

func TestConfigShowCommand(t *testing.T) {
	useViper(t, map[string]any{
		KeyBaseURL:   "https://jsonplaceholder.typicode.com",
		KeyHeaders:   map[string]any{"Authorization": "Bearer secret-token"},
		KeyResources: map[string]any{"posts": "/posts"},
		KeyOutput:    constants.OutputFormatYAML,
	})

	out, err := execute(t, NewConfigCommand(), "show")
	require.NoError(t, err)
	assert.Contains(t, out, "base_url: https://jsonplaceholder.typicode.com")
	assert.Contains(t, out, "Bear")
	assert.NotContains(t, out, "secret-token")
	assert.Contains(t, out, "posts: /posts")
}

func TestVersionCommand(t *testing.T) {
	useViper(t, map[string]any{KeyOutput: constants.OutputFormatJSON})

	out, err := execute(t, NewVersionCommand("1.2.3", "abc", "today"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"1.2.3","commit":"abc","built":"today"}`, out)
}

func TestPrintOutput_Table(t *testing.T) {
	var out bytes.Buffer

	err := printOutput(&out, constants.OutputFormatTable, []any{
		map[string]any{"user_id": 1.0, "title": "a"},
		map[string]any{"title": "b"},
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), NotAvailable)

	out.Reset()

	err = printOutput(&out, constants.OutputFormatTable, []any{})
	require.NoError(t, err)
	assert.Equal(t, "No results\n", out.String())

	out.Reset()

	err = printOutput(&out, constants.OutputFormatTable, "plain text")
	require.NoError(t, err)
	assert.Equal(t, "plain text\n", out.String())
}
