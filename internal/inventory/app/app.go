package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/stocktake/internal/inventory/http"
	"github.com/aussiebroadwan/stocktake/internal/inventory/service"
	"github.com/aussiebroadwan/stocktake/internal/inventory/store/drivers/sqlite"
	"github.com/aussiebroadwan/stocktake/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the inventory service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db *sqlite.Store

	// Services
	authService         *service.AuthService
	sessionService      *service.SessionService
	productService      *service.ProductService
	responsibleService  *service.ResponsibleService
	backupService       *service.BackupService
	exportService       *service.ExportService
	lookupClient        *service.LookupClient
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "stocktake",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.bootstrap(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()
	if app.cfg.AutoBackup {
		app.backupService.Start()
	}

	app.logger.Info("stocktake service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down stocktake service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()
	app.backupService.Stop()

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("stocktake service stopped")
	return nil
}

// initDatabase initializes the connection pool and applies migrations
func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(context.Background(), sqlite.Config{
		DSN:      fmt.Sprintf("file:%s", app.cfg.DatabaseFile),
		PoolSize: app.cfg.PoolSize,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// bootstrap seeds the admin account, responsible parties and system config
// on first start
func (app *Application) bootstrap() error {
	boot := &service.BootstrapService{
		Store:          app.db,
		SessionTimeout: app.cfg.SessionTimeout,
		MaxAttempts:    app.cfg.MaxAttempts,
		Lockout:        app.cfg.Lockout,
		BackupsEnabled: app.cfg.AutoBackup,
	}

	ctx := slogx.WithContext(context.Background(), app.logger)
	if err := boot.Run(ctx); err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.authService = &service.AuthService{
		Store:       app.db,
		MaxAttempts: app.cfg.MaxAttempts,
		Lockout:     app.cfg.Lockout,
	}
	app.sessionService = &service.SessionService{
		Store:   app.db,
		Timeout: app.cfg.SessionTimeout,
	}
	app.responsibleService = &service.ResponsibleService{Store: app.db}
	app.productService = &service.ProductService{
		Store:        app.db,
		Responsibles: app.responsibleService,
	}
	app.exportService = &service.ExportService{Store: app.db}
	app.lookupClient = &service.LookupClient{
		BaseURL:      app.cfg.LookupBaseURL,
		ClientID:     app.cfg.LookupClientID,
		ClientSecret: app.cfg.LookupClientSecret,
		HTTPClient:   &http.Client{Timeout: app.cfg.LookupTimeout},
	}
	app.backupService = &service.BackupService{
		Store:        app.db,
		Logger:       app.logger,
		DatabasePath: app.cfg.DatabaseFile,
		BackupDir:    app.cfg.BackupDir,
		Interval:     app.cfg.BackupInterval,
		Retention:    app.cfg.BackupRetention,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	// Wire services to router
	router.AuthService = app.authService
	router.SessionService = app.sessionService
	router.ProductService = app.productService
	router.ResponsibleService = app.responsibleService
	router.BackupService = app.backupService
	router.ExportService = app.exportService
	router.LookupClient = app.lookupClient
	router.PoolStats = app.db.PoolStats
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
