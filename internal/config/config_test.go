package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/talecraft/engine/clock"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "talecraft", cfg.RedisPrefix)
	assert.NotEmpty(t, cfg.SaveDir)
	assert.Zero(t, cfg.StartTime)
}

func TestLoad_Env(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TALECRAFT_ENVIRONMENT", "production")
	t.Setenv("TALECRAFT_LOG_LEVEL", "debug")
	t.Setenv("TALECRAFT_REDIS_ADDR", "localhost:6379")
	t.Setenv("TALECRAFT_SEED", "42")
	t.Setenv("TALECRAFT_START_TIME", "2024-03-01 08:00")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, int64(42), cfg.Seed)
	want, _ := clock.Parse("2024-03-01 08:00")
	assert.Equal(t, want, cfg.StartTime)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "talecraft.yaml"),
		[]byte("save_dir: /tmp/tc\nplain: true\nlog_level: warn\n"), 0o644))

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/tc", cfg.SaveDir)
	assert.True(t, cfg.Plain)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
}

func TestLoad_Errors(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "an explicit config file must exist")

	t.Setenv("TALECRAFT_START_TIME", "tomorrow")
	_, err = Load(New(), "")
	assert.ErrorContains(t, err, "start_time")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.in), tt.in)
	}
}
