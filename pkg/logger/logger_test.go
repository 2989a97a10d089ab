package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"course_studio_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestResolveLevel(t *testing.T) {
	lvl, err := ResolveLevel(config.LogConfig{}, "debug")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lvl)

	lvl, err = ResolveLevel(config.LogConfig{}, "release")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, lvl)

	lvl, err = ResolveLevel(config.LogConfig{Level: " warn "}, "debug")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, lvl)

	_, err = ResolveLevel(config.LogConfig{Level: "chatty"}, "debug")
	assert.Error(t, err)
}

func TestNewWritesJSONFileAndConsole(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "app.log")
	var console bytes.Buffer
	lvl := zap.NewAtomicLevelAt(zapcore.InfoLevel)

	l := New(config.LogConfig{File: file, MaxSizeMB: 1}, lvl, &console)
	l.Debug("hidden")
	l.Info("lesson generated", zap.String("course_id", "c1"))
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "lesson generated", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "course-studio", entry["service"])
	assert.Equal(t, "c1", entry["course_id"])

	assert.Contains(t, console.String(), "lesson generated")
	assert.NotContains(t, console.String(), "hidden")

	lvl.SetLevel(zapcore.DebugLevel)
	l.Debug("now visible")
	assert.Contains(t, console.String(), "now visible")
}

func TestReload(t *testing.T) {
	t.Cleanup(func() { level.SetLevel(zapcore.InfoLevel) })

	cfg := &config.Config{Server: config.ServerConfig{Mode: "release"}}
	require.NoError(t, Reload(cfg))
	assert.Equal(t, zapcore.InfoLevel, level.Level())

	cfg.Log.Level = "error"
	require.NoError(t, Reload(cfg))
	assert.Equal(t, zapcore.ErrorLevel, level.Level())

	cfg.Log.Level = "loud"
	assert.Error(t, Reload(cfg))
	assert.Equal(t, zapcore.ErrorLevel, level.Level())
}
