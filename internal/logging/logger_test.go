package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fivetwenty-io/apikit/internal/logging"
	"github.com/fivetwenty-io/apikit/pkg/apikit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ apikit.Logger = (*logging.Logger)(nil)

func TestLogger_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := logging.New(logging.Config{Level: "debug", Format: logging.FormatJSON, Output: &buf})
	logger.Debug("HTTP Request", map[string]interface{}{"method": "GET", "attempt": 0})

	var entry map[string]interface{}

	err := json.Unmarshal(buf.Bytes(), &entry)
	require.NoError(t, err)

	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "HTTP Request", entry["message"])
	assert.Equal(t, "GET", entry["method"])
	assert.Contains(t, entry, "time")
}

func TestLogger_Level(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		level   string
		written bool
	}{
		{name: "default is info", level: "", written: false},
		{name: "invalid falls back to info", level: "loud", written: false},
		{name: "warn", level: "WARN", written: false},
		{name: "debug", level: "debug", written: true},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			logger := logging.New(logging.Config{Level: testCase.level, Format: logging.FormatJSON, Output: &buf})
			logger.Debug("hidden?", nil)

			assert.Equal(t, testCase.written, buf.Len() > 0)

			logger.Error("always", nil)
			assert.Contains(t, buf.String(), "always")
		})
	}
}

func TestLogger_ConsoleFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := logging.New(logging.Config{Format: logging.FormatConsole, Output: &buf})
	logger.Info("API Response", map[string]interface{}{"status_code": 200})

	out := buf.String()
	assert.Contains(t, out, "API Response")
	assert.Contains(t, out, "status_code=")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestLogger_AutoFormatOnBufferIsJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := logging.New(logging.Config{Output: &buf})
	logger.Warn("careful", map[string]interface{}{"k": "v"})

	assert.True(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
