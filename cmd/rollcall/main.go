package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Versifine/rollcall/internal/config"
	"github.com/Versifine/rollcall/internal/debug"
	"github.com/Versifine/rollcall/internal/input"
	"github.com/Versifine/rollcall/internal/logger"
	"github.com/Versifine/rollcall/internal/sim"
	"github.com/Versifine/rollcall/internal/viewer"
)

func main() {
	if err := run(); err != nil {
		slog.Error("rollcall failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	loaded, err := config.Load("configs/config.yaml")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := *loaded

	// The console host owns stdout, so its logs go to stderr unless a file is set.
	fallback := os.Stdout
	if cfg.Host.Mode == "console" {
		fallback = os.Stderr
	}
	out, closeLog, err := logger.OpenFile(cfg.Logging.File, fallback)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()
	logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: out,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state := input.NewState()
	session, err := sim.New(cfg, state)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	defer session.Close()

	slog.Info("Starting host", "mode", cfg.Host.Mode)
	switch cfg.Host.Mode {
	case "viewer":
		return viewer.Run(ctx, session, state, cfg)
	case "console":
		console := debug.NewConsole(session, state, float64(cfg.Host.Width), float64(cfg.Host.Height))
		if cfg.Host.TickRate > 0 {
			console.SetTickInterval(time.Duration(float64(time.Second) / cfg.Host.TickRate))
		}
		return console.Start(ctx)
	case "headless":
		return sim.RunHeadless(ctx, session, cfg.Host.TickRate, cfg.Host.Frames)
	default:
		return fmt.Errorf("unknown host mode %q", cfg.Host.Mode)
	}
}
