package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/amosWeiskopf/profilesmith/internal/config"
)

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithSink(config.LoggingConfig{Level: "info", Format: "json"}, zapcore.AddSync(&buf))

	log.Debug("hidden")
	log.Info("Crawled", zap.String("url", "https://acme.com/"))
	require.NoError(t, log.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "Crawled", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "https://acme.com/", entry["url"])
}

func TestConsoleOutputAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithSink(config.LoggingConfig{Level: "DEBUG", Format: "console"}, zapcore.AddSync(&buf))

	log.Debug("Skipped (disallowed by robots.txt)")
	require.NoError(t, log.Sync())

	assert.Contains(t, buf.String(), "DEBUG")
	assert.Contains(t, buf.String(), "Skipped (disallowed by robots.txt)")
}

func TestLevelFallback(t *testing.T) {
	assert.Equal(t, zapcore.InfoLevel, level("verbose"))
	assert.Equal(t, zapcore.WarnLevel, level("warn"))
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, err := New(config.LoggingConfig{Level: "info", Format: "json", OutputPath: path})
	require.NoError(t, err)

	log.Warn("Fetch failed")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Fetch failed")
}
