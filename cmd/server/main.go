// BitGenius - backend for the Bitcoin agent dashboard
package main

import (
	"context"
	"os"

	"github.com/bitgenius/backend/internal/config"
	"github.com/bitgenius/backend/internal/logging"
	"github.com/bitgenius/backend/internal/server"
	"github.com/bitgenius/backend/internal/traces"
)

// Build info - set by ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", false).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Create logger
	logger := logging.New(cfg.LogLevel, cfg.IsProduction())

	logger.Info("starting bitgenius backend",
		"version", Version,
		"commit", Commit,
		"build_time", BuildTime,
		"env", cfg.Env,
		"contract", cfg.ContractAddress+"."+cfg.ContractName,
	)

	ctx := context.Background()

	// Tracing (no-op when no OTLP endpoint configured)
	shutdownTraces, err := traces.Init(ctx, cfg.OTLPEndpoint, logger)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTraces(context.Background()) }()

	// Create and run server
	srv, err := server.New(cfg, server.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
