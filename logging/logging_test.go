package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/cakeagent/config"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(&buf, config.LoggingConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("shown", "field", "flavor")

	var entry map[string]any
	require.NoError(t, sonic.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "flavor", entry["field"])
}

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cakeagent.log")
	var buf bytes.Buffer
	logger, closer, err := New(&buf, config.LoggingConfig{File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	logger.Info("order placed", "reference", "CAKE-0000000001")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "CAKE-0000000001")
	assert.Contains(t, buf.String(), "order placed")
}

func TestNewUnknownFormat(t *testing.T) {
	_, _, err := New(&bytes.Buffer{}, config.LoggingConfig{Format: "xml"})
	assert.Error(t, err)
}
