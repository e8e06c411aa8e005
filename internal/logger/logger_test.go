package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "debug")

	l.Info("event", "created")
	l.LogTicketing("CREATE", "evt_1", "listing created")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "EVENT", entry.Category)
	assert.Equal(t, "created", entry.Message)
	assert.Equal(t, "logger_test.go", entry.File)

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "TICKETING", entry.Category)
	assert.Equal(t, "[CREATE] evt_1 - listing created", entry.Message)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn")

	l.Debug("x", "debug")
	l.Info("x", "info")
	l.Warn("x", "warn")
	l.Error("x", "error")

	out := buf.String()
	assert.NotContains(t, out, `"message":"debug"`)
	assert.NotContains(t, out, `"message":"info"`)
	assert.Contains(t, out, `"message":"warn"`)
	assert.Contains(t, out, `"message":"error"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("DEBUG"))
	assert.Equal(t, WARN, ParseLevel("warning"))
	assert.Equal(t, ERROR, ParseLevel(" error "))
	assert.Equal(t, INFO, ParseLevel("unknown"))
}

func TestNewLoggerCreatesFile(t *testing.T) {
	dir := t.TempDir()

	l, err := NewLogger(Options{Dir: dir, Name: "test-service", Level: "info"})
	require.NoError(t, err)
	l.terminal = nil
	l.Info("APP", "hello")
	l.Close()

	matches, err := filepath.Glob(filepath.Join(dir, "test-service-*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello"`)
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Info("x", "y")
		l.Close()
	})
}
