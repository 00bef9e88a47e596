package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nathoo/talecraft/cli"
	"github.com/nathoo/talecraft/engine"
	"github.com/nathoo/talecraft/engine/save"
	"github.com/nathoo/talecraft/internal/config"
	"github.com/nathoo/talecraft/internal/logger"
	"github.com/nathoo/talecraft/loader"
	"github.com/nathoo/talecraft/session"
	"github.com/nathoo/talecraft/tui"
)

func newPlayCmd(v *viper.Viper, load func() (*config.Config, error)) *cobra.Command {
	var scriptFile, slot string

	cmd := &cobra.Command{
		Use:   "play <game_directory>",
		Short: "Play a story",
		Long: `Loads the story in the given directory and starts it in the terminal UI.
The plain line-oriented interface is used with --plain, with --script, or when
stdout is not a terminal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return play(ctx, cfg, args[0], scriptFile, slot)
		},
	}

	f := cmd.Flags()
	f.StringVar(&scriptFile, "script", "", "read commands from a file and echo them (implies --plain)")
	f.StringVar(&slot, "load", "", "resume from a save slot")
	f.Bool("plain", false, "use the plain line-oriented interface")
	f.Bool("trace", false, "log script dispatch at debug level")
	f.Int64("seed", 0, "random seed (default: time based)")
	f.String("start-time", "", `override the story's start time ("2006-01-02 15:04")`)
	f.String("save-dir", "", "directory for save files")
	f.String("redis-addr", "", "keep saves in Redis at this address instead of files")

	for flag, key := range map[string]string{
		"plain":      config.KeyPlain,
		"trace":      config.KeyTrace,
		"seed":       config.KeySeed,
		"start-time": config.KeyStartTime,
		"save-dir":   config.KeySaveDir,
		"redis-addr": config.KeyRedisAddr,
	} {
		_ = v.BindPFlag(key, f.Lookup(flag))
	}
	return cmd
}

func play(ctx context.Context, cfg *config.Config, dir, scriptFile, slot string) error {
	plain := cfg.Plain || scriptFile != "" || !isTerminal()
	if cfg.Trace {
		cfg.LogLevel = slog.LevelDebug
	}

	logOut, closeLog := logWriter(cfg, plain)
	defer closeLog()
	log := logger.Setup(cfg, logOut)

	res, err := loader.Load(dir)
	if err != nil {
		return fmt.Errorf("loading game: %w", err)
	}
	for _, w := range res.Warnings {
		log.Warn("story warning", "detail", w)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	g := engine.NewGame(res.Library, engine.Options{
		Seed:      seed,
		StartTime: cfg.StartTime,
		Logger:    log,
	})

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	resume := false
	if slot != "" {
		if err := session.LoadSlot(ctx, g, store, slot); err != nil {
			return fmt.Errorf("loading save %s: %w", slot, err)
		}
		resume = true
	}

	s := session.New(g, store)

	if !plain {
		return tui.Run(ctx, s, resume)
	}

	c := cli.New(s)
	c.Resume = resume
	if scriptFile != "" {
		f, err := os.Open(scriptFile)
		if err != nil {
			return fmt.Errorf("opening script: %w", err)
		}
		defer f.Close()
		c.In = f
		c.EchoInput = true
	}
	c.Run(ctx)
	return nil
}

// openStore picks Redis when an address is configured and files otherwise.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (save.Store, error) {
	if cfg.RedisAddr != "" {
		rs := save.NewRedisStore(cfg.RedisAddr, cfg.RedisPrefix, log)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rs.Ping(pingCtx); err != nil {
			return nil, err
		}
		log.Info("saving to redis", "addr", cfg.RedisAddr, "prefix", cfg.RedisPrefix)
		return rs, nil
	}
	fs, err := save.NewFileStore(cfg.SaveDir)
	if err != nil {
		return nil, fmt.Errorf("opening save directory: %w", err)
	}
	return fs, nil
}

// logWriter sends logs to stderr for the plain interface. The terminal UI
// owns the screen, so its logs go to talecraft.log in the save directory.
func logWriter(cfg *config.Config, plain bool) (io.Writer, func()) {
	if plain {
		return os.Stderr, func() {}
	}
	if err := os.MkdirAll(cfg.SaveDir, 0o755); err != nil {
		return io.Discard, func() {}
	}
	f, err := os.OpenFile(filepath.Join(cfg.SaveDir, "talecraft.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return io.Discard, func() {}
	}
	return f, func() { f.Close() }
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
