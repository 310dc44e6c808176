// Package main is the entry point for the postmuse API server.
//
// main stays minimal: load configuration, build the logger, hand both to
// the server package and block until shutdown. All logic lives under
// internal/.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/sakif/postmuse/internal/config"
	"github.com/sakif/postmuse/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))

	// JWT_SECRET must be a long random string, e.g.
	//   POSTMUSE_JWT_SECRET=$(openssl rand -hex 32)
	if cfg.JWT.Secret == "" {
		logger.Error("POSTMUSE_JWT_SECRET is not set")
		os.Exit(1)
	}

	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
