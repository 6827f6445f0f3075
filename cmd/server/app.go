package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jfowler/remind-api/internal/config"
	"github.com/jfowler/remind-api/internal/platform/jsonfile"
	"github.com/jfowler/remind-api/internal/platform/postgres"
	"github.com/jfowler/remind-api/internal/redact"
	"github.com/jfowler/remind-api/internal/registry"
	"github.com/jfowler/remind-api/internal/scheduler"
	"github.com/jfowler/remind-api/internal/service"
	"github.com/jfowler/remind-api/internal/service/auth"
	"github.com/jfowler/remind-api/internal/store"
)

// application holds the assembled dependencies of the running server.
type application struct {
	config *config.Config
	logger *slog.Logger

	db         *sql.DB // nil under the jsonfile driver
	taskStore  store.TaskStore
	userStore  store.UserStore
	jwtService auth.JWTService
	hasher     *auth.BcryptHasher
	service    *service.TaskService
}

// newApplication wires stores, services, and the scheduler from the loaded
// configuration.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{config: cfg, logger: logger}

	if err := app.setupStores(ctx); err != nil {
		return nil, err
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}
	app.jwtService = jwtService
	app.hasher = auth.NewBcryptHasher(cfg.Auth.BcryptCost)

	reg := registry.New()
	sched := scheduler.New(app.taskStore, reg, scheduler.Config{
		TickInterval:    time.Duration(cfg.Scheduler.TickIntervalSeconds) * time.Second,
		DeliveryTimeout: time.Duration(cfg.Scheduler.DeliveryTimeoutSeconds) * time.Second,
	}, logger)
	app.service = service.NewTaskService(app.taskStore, reg, sched, logger)

	return app, nil
}

// setupStores opens the persistence backend named by the storage driver.
func (app *application) setupStores(ctx context.Context) error {
	switch app.config.Storage.Driver {
	case "jsonfile":
		tasks, err := jsonfile.OpenTaskStore(app.config.Storage.TaskFile, app.logger)
		if err != nil {
			return fmt.Errorf("failed to open task file: %w", err)
		}
		users, err := jsonfile.OpenUserStore(app.config.Storage.UserFile, app.logger)
		if err != nil {
			return fmt.Errorf("failed to open user file: %w", err)
		}
		app.taskStore = tasks
		app.userStore = users
		app.logger.Info("using jsonfile storage",
			"task_file", app.config.Storage.TaskFile,
			"user_file", app.config.Storage.UserFile)

	case "postgres":
		db, err := postgres.Open(ctx, app.config.Storage.DatabaseURL)
		if err != nil {
			// The connection error may echo the URL, credentials included.
			return fmt.Errorf("failed to connect to database: %s", redact.Error(err))
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return err
		}
		app.db = db
		app.taskStore = postgres.NewTaskStore(db)
		app.userStore = postgres.NewUserStore(db)
		app.logger.Info("using postgres storage",
			"database", redact.URL(app.config.Storage.DatabaseURL))

	default:
		return fmt.Errorf("unknown storage driver %q", app.config.Storage.Driver)
	}
	return nil
}

// cleanup stops the scheduler and releases storage resources. Called after
// the HTTP server has finished draining requests.
func (app *application) cleanup() {
	app.service.Stop()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
	}
	app.logger.Info("application cleanup completed")
}
