package apikit_test

import (
	"testing"
	"time"

	"github.com/fivetwenty-io/apikit/pkg/apikit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_GetSet(t *testing.T) {
	t.Parallel()

	store := apikit.NewConfigStore(apikit.Config{BaseURL: "https://api.example.com"})

	value, ok := store.Get(apikit.KeyBaseURL)
	require.True(t, ok)
	assert.Equal(t, "https://api.example.com", value)

	_, ok = store.Get(apikit.KeyTimeout)
	assert.False(t, ok)

	_, ok = store.Get("maxRedirects")
	assert.False(t, ok)

	store.Set(apikit.KeyTimeout, 1500)
	store.Set("maxRedirects", 3)

	value, ok = store.Get(apikit.KeyTimeout)
	require.True(t, ok)
	assert.Equal(t, 1500*time.Millisecond, value)

	value, ok = store.Get("maxRedirects")
	require.True(t, ok)
	assert.Equal(t, 3, value)
}

func TestConfigStore_SetZeroValueIsPresent(t *testing.T) {
	t.Parallel()

	store := apikit.NewConfigStore(apikit.Config{})

	_, ok := store.Get(apikit.KeyDebug)
	assert.False(t, ok)

	store.Set(apikit.KeyDebug, false)
	store.Set(apikit.KeyBaseURL, "")

	value, ok := store.Get(apikit.KeyDebug)
	require.True(t, ok)
	assert.Equal(t, false, value)

	value, ok = store.Get(apikit.KeyBaseURL)
	require.True(t, ok)
	assert.Empty(t, value)

	store.Set(apikit.KeyUserAgent, 7)

	_, ok = store.Get(apikit.KeyUserAgent)
	assert.False(t, ok)

	clone := store.Clone()

	_, ok = clone.Get(apikit.KeyDebug)
	assert.True(t, ok)
}

func TestConfigStore_SetTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    any
		expected time.Duration
	}{
		{name: "duration", value: 2 * time.Second, expected: 2 * time.Second},
		{name: "int milliseconds", value: 250, expected: 250 * time.Millisecond},
		{name: "int32 milliseconds", value: int32(100), expected: 100 * time.Millisecond},
		{name: "uint milliseconds", value: uint(40), expected: 40 * time.Millisecond},
		{name: "float milliseconds", value: 1.5, expected: 1500 * time.Microsecond},
		{name: "duration string", value: "3s", expected: 3 * time.Second},
		{name: "numeric string", value: "20", expected: 20 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := apikit.NewConfigStore(apikit.Config{})
			store.Set(apikit.KeyTimeout, tt.value)

			value, ok := store.Get(apikit.KeyTimeout)
			require.True(t, ok)
			assert.Equal(t, tt.expected, value)
		})
	}

	t.Run("rejects non-numeric values", func(t *testing.T) {
		t.Parallel()

		store := apikit.NewConfigStore(apikit.Config{Timeout: time.Second})
		store.Set(apikit.KeyTimeout, true)
		store.Set(apikit.KeyTimeout, "soon")

		assert.Equal(t, time.Second, store.Value().Timeout)
	})
}

func TestConfigStore_SetIgnoresWrongType(t *testing.T) {
	t.Parallel()

	store := apikit.NewConfigStore(apikit.Config{BaseURL: "https://api.example.com"})
	store.Set(apikit.KeyBaseURL, 42)

	assert.Equal(t, "https://api.example.com", store.Value().BaseURL)
}

func TestConfigStore_SetWritesLiveRecord(t *testing.T) {
	t.Parallel()

	store := apikit.NewConfigStore(apikit.Config{})
	live := store.Value()

	store.Set(apikit.KeyUserAgent, "agent/1")
	assert.Equal(t, "agent/1", live.UserAgent)

	live.BaseURL = "https://mutated.example.com"

	value, _ := store.Get(apikit.KeyBaseURL)
	assert.Equal(t, "https://mutated.example.com", value)
}

func TestConfigStore_SetHeaders(t *testing.T) {
	t.Parallel()

	store := apikit.NewConfigStore(apikit.Config{
		Headers: map[string]string{"Accept": "application/json"},
	})

	captured := store.Value().Headers

	store.SetHeaders("Authorization", "Bearer token")

	headers := store.Value().Headers
	assert.Equal(t, "Bearer token", headers["Authorization"])
	assert.Equal(t, "application/json", headers["Accept"])

	assert.Len(t, captured, 1)
	assert.NotContains(t, captured, "Authorization")
}

func TestConfigStore_SetHeadersOnEmptyStore(t *testing.T) {
	t.Parallel()

	store := apikit.NewConfigStore(apikit.Config{})
	store.SetHeaders("X-Trace", "1")
	store.SetHeaders("X-Other", "2")

	assert.Equal(t, map[string]string{"X-Trace": "1", "X-Other": "2"}, store.Value().Headers)
}

func TestConfigStore_SnapshotIsDetached(t *testing.T) {
	t.Parallel()

	store := apikit.NewConfigStore(apikit.Config{
		Headers: map[string]string{"A": "1"},
		Options: map[string]any{"k": "v"},
	})

	snapshot := store.Snapshot()
	snapshot.Headers["A"] = "2"
	snapshot.Options["k"] = "changed"

	assert.Equal(t, "1", store.Value().Headers["A"])
	assert.Equal(t, "v", store.Value().Options["k"])

	clone := store.Clone()
	clone.SetHeaders("B", "3")
	assert.NotContains(t, store.Value().Headers, "B")
}

func TestConfig_Merge(t *testing.T) {
	t.Parallel()

	base := apikit.Config{
		BaseURL: "https://api.example.com",
		Headers: map[string]string{"Accept": "application/json", "X-Env": "prod"},
		Timeout: time.Second,
		Params:  map[string]string{"lang": "en"},
	}
	override := apikit.Config{
		Headers: map[string]string{"X-Env": "test"},
		Timeout: 2 * time.Second,
	}

	merged := base.Merge(override)

	assert.Equal(t, "https://api.example.com", merged.BaseURL)
	assert.Equal(t, 2*time.Second, merged.Timeout)
	assert.Equal(t, map[string]string{"Accept": "application/json", "X-Env": "test"}, merged.Headers)
	assert.Equal(t, map[string]string{"lang": "en"}, merged.Params)

	assert.Equal(t, "prod", base.Headers["X-Env"])
	assert.Equal(t, time.Second, base.Timeout)

	merged.Params["lang"] = "de"
	assert.Equal(t, "en", base.Params["lang"])
}
