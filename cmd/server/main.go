// Package main implements the entry point for the remind-api server,
// which stores users' scheduled reminders and pushes notifications to
// their live websocket connections when a reminder comes due.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jfowler/remind-api/internal/config"
	"github.com/jfowler/remind-api/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// run loads configuration, wires the application, starts the scheduler
// loop, and serves HTTP until shutdown.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	appLogger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"storage_driver", cfg.Storage.Driver)

	ctx := context.Background()
	app, err := newApplication(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if err := app.service.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	return app.startHTTPServer(ctx, app.setupRouter())
}
