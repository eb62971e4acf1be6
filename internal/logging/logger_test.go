package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelWarn, Format: "text", Output: &buf})

	logger.Debug(context.Background(), "debug message")
	logger.Info(context.Background(), "info message")
	logger.Warn(context.Background(), nil, "warn message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
}

func TestLoggerJSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelDebug, Format: "json", Output: &buf})

	logger.WithComponent("registry").
		With("render", 1).
		Error(context.Background(), errors.New("boom"), "failed", "capability", "read_file")

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "failed", record["msg"])
	assert.Equal(t, "registry", record["component"])
	assert.Equal(t, "boom", record["error"])
	assert.Equal(t, "read_file", record["capability"])
	assert.Equal(t, float64(1), record["render"])
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.NotPanics(t, func() {
		logger.Error(context.Background(), errors.New("ignored"), "nothing")
		logger.WithComponent("x").Info(context.Background(), "nothing")
	})
}

func TestRedactValue(t *testing.T) {
	assert.Equal(t, "[REDACTED]", RedactValue("api_token", "abc"))
	assert.Equal(t, "[REDACTED]", RedactValue("DB_PASSWORD", "hunter2"))
	assert.Equal(t, "plain", RedactValue("name", "plain"))

	long := strings.Repeat("a", 1200)
	got := RedactValue("body", long)
	assert.True(t, strings.HasSuffix(got, "...[TRUNCATED]"))
	assert.Len(t, got, maxLoggedValue+len("...[TRUNCATED]"))
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", LogLevel(9).String())
}

func TestConfiguredComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelInfo, Format: "json", Output: &buf, Component: "cli"})
	logger.Info(context.Background(), "started")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "cli", record["component"])
	assert.Equal(t, "INFO", record["level"])
}
