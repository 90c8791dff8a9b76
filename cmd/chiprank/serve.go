package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/louten/chiprank/internal/room"
	"github.com/louten/chiprank/internal/server"
)

// ServeCmd runs the WebSocket server and the room janitor
type ServeCmd struct {
	Config   string `short:"c" default:"chiprank.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" help:"Server address to bind to (overrides config)"`
	Port     int    `short:"p" help:"Server port (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
	Dev      bool   `help:"Enable development commands (overrides config)"`
}

func (c *ServeCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	// Apply command line overrides
	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if c.Dev {
		cfg.Rooms.DevCommands = true
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := setupLogger(cfg.Server.LogLevel)
	logger.Info("Starting chiprank",
		"addr", cfg.ListenAddress(),
		"minPlayers", cfg.Rooms.MinPlayers,
		"maxPlayers", cfg.Rooms.MaxPlayers,
		"devCommands", cfg.Rooms.DevCommands)

	clock := quartz.NewReal()
	registry := room.NewRegistry(cfg.RoomConfig(), clock, logger)
	srv := server.New(cfg, registry, logger)
	janitor := server.NewJanitor(registry, cfg.JanitorInterval(), clock, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })
	g.Go(func() error { return janitor.Run(ctx) })
	return g.Wait()
}

func setupLogger(level string) *log.Logger {
	logger := log.New(os.Stderr)
	switch level {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}
