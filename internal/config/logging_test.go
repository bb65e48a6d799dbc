package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/lockgate/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		expected config.LogLevel
	}{
		{"off lowercase", "off", config.LogLevelOff},
		{"off uppercase", "OFF", config.LogLevelOff},
		{"none", "none", config.LogLevelOff},
		{"error lowercase", "error", config.LogLevelError},
		{"info", "info", config.LogLevelInfo},
		{"info uppercase", "INFO", config.LogLevelInfo},
		{"debug lowercase", "debug", config.LogLevelDebug},
		{"with whitespace", "  debug  ", config.LogLevelDebug},
		{"invalid returns error", "invalid", config.LogLevelError},
		{"empty returns error", "", config.LogLevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, config.ParseLogLevel(tt.input))
		})
	}
}

func TestLogLevel_String(t *testing.T) {
	t.Parallel()
	tests := []struct {
		level    config.LogLevel
		expected string
	}{
		{config.LogLevelOff, "off"},
		{config.LogLevelError, "error"},
		{config.LogLevelInfo, "info"},
		{config.LogLevelDebug, "debug"},
		{config.LogLevel(99), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.level.String())
		})
	}
}

func newFileLogger(t *testing.T, level config.LogLevel) (*config.Logger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logs", "lockgate.log")
	logger, err := config.NewLogger(level, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = logger.Close() })
	return logger, path
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // test file path
	require.NoError(t, err)
	return string(data)
}

func TestNewLogger_LevelOffOpensNothing(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "off.log")
	logger, err := config.NewLogger(config.LogLevelOff, path)
	require.NoError(t, err)
	logger.Error("ignored")
	require.NoError(t, logger.Close())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestNewLogger_CreatesDirectory(t *testing.T) {
	t.Parallel()
	_, path := newFileLogger(t, config.LogLevelError)

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLogger_LevelFiltering(t *testing.T) {
	t.Parallel()
	logger, path := newFileLogger(t, config.LogLevelInfo)

	logger.Error("persist failed: %s", "disk full")
	logger.Info("state -> %s", "locked")
	logger.Debug("tick at %d", 42)

	content := readLog(t, path)
	assert.Contains(t, content, "[ERROR] persist failed: disk full")
	assert.Contains(t, content, "[INFO] state -> locked")
	assert.NotContains(t, content, "tick at 42")
}

func TestLogger_SetLevel(t *testing.T) {
	t.Parallel()
	logger, path := newFileLogger(t, config.LogLevelError)

	logger.Debug("hidden")
	logger.SetLevel(config.LogLevelDebug)
	assert.Equal(t, config.LogLevelDebug, logger.Level())
	logger.Debug("visible")

	content := readLog(t, path)
	assert.NotContains(t, content, "hidden")
	assert.Contains(t, content, "[DEBUG] visible")
}

func TestLogger_SessionTag(t *testing.T) {
	t.Parallel()
	logger, path := newFileLogger(t, config.LogLevelDebug)

	logger.SetSession("abc123")
	logger.Info("foreground")

	assert.Contains(t, readLog(t, path), "[INFO] [abc123] foreground")
}

func TestLogger_Writer(t *testing.T) {
	t.Parallel()
	logger, path := newFileLogger(t, config.LogLevelDebug)

	n, err := logger.Writer(config.LogLevelInfo).Write([]byte("from writer\n"))
	require.NoError(t, err)
	assert.Equal(t, len("from writer\n"), n)

	assert.Contains(t, readLog(t, path), "[INFO] from writer")
}

func TestNullLogger(t *testing.T) {
	t.Parallel()
	logger := config.NullLogger()
	assert.Equal(t, config.LogLevelOff, logger.Level())

	logger.Error("x")
	logger.Info("x")
	logger.Debug("x")
	require.NoError(t, logger.Close())
}

func TestLogger_Concurrent(t *testing.T) {
	t.Parallel()
	logger, path := newFileLogger(t, config.LogLevelDebug)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			logger.Debug("line %d", n)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(readLog(t, path)), "\n")
	assert.Len(t, lines, 20)
}
