package logging

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

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   DEBUG,
		"INFO":    INFO,
		"warning": WARN,
		"Error":   ERROR,
		"fatal":   FATAL,
		"bogus":   INFO,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLogger_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, WARN, false)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN: shown")
}

func TestLogger_TextFieldsAreSorted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, DEBUG, false).WithField("worker", 0).Component("intmath")

	logger.Info("signal", Fields{"iteration": 3})

	assert.True(t, strings.HasSuffix(strings.TrimSpace(buf.String()),
		"INFO: signal component=intmath iteration=3 worker=0"), buf.String())
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, INFO, true).WithField("run_id", "abc")

	logger.Error("check failed", Fields{"check": 7})

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "check failed", entry.Message)
	assert.Equal(t, "abc", entry.Fields["run_id"])
	assert.EqualValues(t, 7, entry.Fields["check"])
}

func TestLogger_WithFieldDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLogger(&buf, INFO, false)
	_ = parent.WithField("child", true)

	parent.Info("plain")
	assert.NotContains(t, buf.String(), "child")
}

func TestLogger_FatalExits(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, INFO, false)
	code := -1
	logger.sink.exit = func(c int) { code = c }

	logger.Fatal("boom")
	assert.Equal(t, 1, code)
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "intcheck.log")
	var buf bytes.Buffer

	logger, err := NewFileLogger(&buf, path, INFO, false)
	require.NoError(t, err)
	logger.Info("to both")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to both")
	assert.Contains(t, buf.String(), "to both")
}
