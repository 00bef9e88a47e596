// Package config reads runtime settings from flags, TALECRAFT_* environment
// variables and an optional talecraft.yaml file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/nathoo/talecraft/engine/clock"
)

// EnvPrefix is prepended to every environment variable, so save_dir is
// read from TALECRAFT_SAVE_DIR.
const EnvPrefix = "TALECRAFT"

// Keys shared by viper and the command line flags.
const (
	KeyEnvironment = "environment"
	KeyLogLevel    = "log_level"
	KeySaveDir     = "save_dir"
	KeyRedisAddr   = "redis_addr"
	KeyRedisPrefix = "redis_prefix"
	KeySeed        = "seed"
	KeyStartTime   = "start_time"
	KeyPlain       = "plain"
	KeyTrace       = "trace"
)

type Config struct {
	Environment string
	LogLevel    slog.Level
	SaveDir     string
	RedisAddr   string
	RedisPrefix string
	Seed        int64
	StartTime   int64 // zero keeps the story's own start time
	Plain       bool
	Trace       bool
}

// New returns a viper instance with defaults and environment binding set
// up. Callers bind their flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyEnvironment, "development")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeySaveDir, defaultSaveDir())
	v.SetDefault(KeyRedisPrefix, "talecraft")
	return v
}

// Load reads the config file, if any, and decodes the merged settings.
// An explicit file must exist; otherwise talecraft.yaml is looked up in
// the working directory and ~/.talecraft and may be absent.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("talecraft")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".talecraft"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{
		Environment: v.GetString(KeyEnvironment),
		LogLevel:    parseLogLevel(v.GetString(KeyLogLevel)),
		SaveDir:     v.GetString(KeySaveDir),
		RedisAddr:   v.GetString(KeyRedisAddr),
		RedisPrefix: v.GetString(KeyRedisPrefix),
		Seed:        v.GetInt64(KeySeed),
		Plain:       v.GetBool(KeyPlain),
		Trace:       v.GetBool(KeyTrace),
	}
	if s := v.GetString(KeyStartTime); s != "" {
		t, err := clock.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", KeyStartTime, err)
		}
		cfg.StartTime = t
	}
	return cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func defaultSaveDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".talecraft", "saves")
	}
	return filepath.Join(home, ".talecraft", "saves")
}
