package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{"shorter than limit", "curl/8.0", 50, "curl/8.0"},
		{"exactly at limit", "abcde", 5, "abcde"},
		{"over limit", "abcdefgh", 5, "abcde..."},
		{"multi-byte runes kept whole", "ééééé", 3, "ééé..."},
		{"zero limit", "abc", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Truncate(tt.input, tt.max))
		})
	}
}

func TestSanitizeQueryString(t *testing.T) {
	assert.True(t, SanitizeQueryString("username=admin&password=x"))
	assert.True(t, SanitizeQueryString("TOKEN=abc"))
	assert.False(t, SanitizeQueryString("page=2"))
	assert.False(t, SanitizeQueryString(""))
}

func TestRedactedAttr(t *testing.T) {
	assert.Equal(t, "[REDACTED]", RedactedAttr("password", "hunter2", "production").Value.String())
	assert.Equal(t, "hunter2", RedactedAttr("password", "hunter2", "development").Value.String())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNew_WithFileTeesOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diag", "honeypot.log")

	logger, closer, err := New(Options{Level: "info", File: path, MaxSizeMB: 1})
	require.NoError(t, err)
	logger.Info("hello")
	require.NoError(t, closer.Close())

	assert.FileExists(t, path)
}

func TestCaptureLogger_LogCapture(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	cl := NewCaptureLogger(base, "production")
	cl.LogCapture(CaptureEvent{
		CaptureID:       "id-1",
		ServerTimestamp: "2026-01-02T03:04:05.000000Z",
		ClientIP:        "1.2.3.4",
		Username:        "admin",
		Password:        "hunter2",
		UserAgent:       strings.Repeat("x", 80),
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "one console line per capture")

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	assert.Equal(t, "honeypot_capture", record["msg"])
	assert.Equal(t, "admin", record["username"])
	assert.Equal(t, "[REDACTED]", record["password"])
	assert.Equal(t, strings.Repeat("x", UserAgentDisplayLength)+"...", record["user_agent"])
}

func TestCaptureLogger_MissingFieldsUsePlaceholders(t *testing.T) {
	var buf bytes.Buffer
	cl := NewCaptureLogger(slog.New(slog.NewJSONHandler(&buf, nil)), "development")

	cl.LogCapture(CaptureEvent{CaptureID: "id-2"})

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "Unknown", record["ip"])
	assert.Equal(t, "N/A", record["username"])
	assert.Equal(t, "N/A", record["password"])
}

func TestCaptureLogger_LogCaptureFailure(t *testing.T) {
	var buf bytes.Buffer
	cl := NewCaptureLogger(slog.New(slog.NewJSONHandler(&buf, nil)), "development")

	cl.LogCaptureFailure("1.2.3.4", errors.New("disk full"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "disk full", record["error"])
}
