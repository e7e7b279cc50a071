package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/w-h-a/helpdesk/internal/app"
	"github.com/w-h-a/helpdesk/internal/config"
	"github.com/w-h-a/helpdesk/server"
	httpserver "github.com/w-h-a/helpdesk/server/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("helpdesk stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Parse inputs
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}

	if _, err := app.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create handler
	a, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}

	// Create server
	srv := httpserver.NewServer(
		a.Handler,
		server.WithAddress(cfg.Address),
		httpserver.WithMetricsHandler(a.Metrics.Handler()),
	)

	errCh := make(chan error, 1)

	go func() {
		slog.InfoContext(ctx, "starting helpdesk", "history", cfg.History, "generator", cfg.Generator, "alerter", cfg.Alerter)
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down", "grace", cfg.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	return srv.Stop(shutdownCtx)
}
