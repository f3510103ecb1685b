package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_WritesJSONRecords(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "vaultindex.log")

	logger, cleanup, err := Setup(Config{
		Level:     "info",
		FilePath:  logPath,
		MaxSizeMB: 1,
		MaxFiles:  2,
	})
	require.NoError(t, err)

	logger.Info("import complete", slog.Int("files", 3), slog.String("collection", "vault"))
	cleanup()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &record))
	assert.Equal(t, "import complete", record["msg"])
	assert.Equal(t, float64(3), record["files"])
	assert.Equal(t, "vault", record["collection"])
}

func TestSetup_FiltersBelowLevel(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "vaultindex.log")

	logger, cleanup, err := Setup(Config{
		Level:     "warn",
		FilePath:  logPath,
		MaxSizeMB: 1,
		MaxFiles:  2,
	})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept")
	cleanup()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}

func TestParseLevel_MapsKnownLevels(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"garbage", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), "level %q", tt.in)
	}
}

func TestRotatingWriter_RotatesAtSizeLimit(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "vaultindex.log")

	w, err := NewRotatingWriter(logPath, 1, 2)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	// Force rotation by making the first write fill the budget.
	w.maxSize = 64

	_, err = w.Write([]byte(strings.Repeat("a", 60)))
	require.NoError(t, err)
	_, err = w.Write([]byte(strings.Repeat("b", 60)))
	require.NoError(t, err)

	rotated, err := os.ReadFile(logPath + ".1")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 60), string(rotated))

	current, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("b", 60), string(current))
}

func TestDefaultConfig_UsesInfoFileOnly(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.False(t, cfg.WriteToStderr)
	assert.NotEmpty(t, cfg.FilePath)
}
