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

	httpapi "github.com/nordbooks/tenauth/internal/auth/http"
	"github.com/nordbooks/tenauth/internal/auth/service"
	"github.com/nordbooks/tenauth/internal/auth/session"
	"github.com/nordbooks/tenauth/internal/auth/store"
	"github.com/nordbooks/tenauth/internal/auth/store/drivers/sqlite"
	"github.com/nordbooks/tenauth/internal/auth/tenant/yamldir"
	"github.com/nordbooks/tenauth/pkg/cryptox"
	"github.com/nordbooks/tenauth/pkg/jwtx"
	"github.com/nordbooks/tenauth/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db        store.Store
	directory *yamldir.Directory
	sessions  *session.Manager
	signer    *jwtx.SessionSigner

	// Services
	authenticator *service.Authenticator
	registration  *service.RegistrationService
	migrator      *service.Migrator

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "tenauth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initDirectory(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	signer, err := jwtx.NewEphemeralSigner(app.cfg.Issuer, app.cfg.SessionTTL)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize session signer: %w", err)
	}
	app.signer = signer

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.migrator.Start()

	app.logger.Info("tenauth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

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

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down tenauth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Drain pending legacy migrations before the database goes away
	app.migrator.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("tenauth service stopped")
	return nil
}

// initDatabase initializes the credential store and applies migrations.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")

	if empty, err := db.Users().IsEmpty(context.Background()); err == nil && empty {
		app.logger.Info("credential store is empty, first logins will resolve through the legacy probe")
	}
	return nil
}

// initDirectory loads the tenant directory file.
func (app *Application) initDirectory() error {
	dir, err := yamldir.Load(app.cfg.TenantsFile, app.logger)
	if err != nil {
		return fmt.Errorf("failed to load tenant directory: %w", err)
	}
	app.directory = dir

	tenants, err := dir.ListTenants(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list tenants: %w", err)
	}
	app.logger.Info("tenant directory loaded", "tenants", len(tenants))
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.sessions = session.NewManager(
		session.NewFileStorage(app.cfg.StateFile),
		app.cfg.DefaultTenantID,
		app.logger,
	)

	app.migrator = service.NewMigrator(app.db, app.logger, app.cfg.MigrationQueueSize)

	app.authenticator = &service.Authenticator{
		Store:     app.db,
		Directory: app.directory,
		Sessions:  app.sessions,
		Prober: &service.Prober{
			Directory:     app.directory,
			Fallbacks:     app.directory.FallbackPasswords(),
			TenantTimeout: app.cfg.ProbeTenantTimeout,
			TotalTimeout:  app.cfg.ProbeTotalTimeout,
		},
		Migrator: app.migrator,
	}

	app.registration = &service.RegistrationService{Store: app.db}
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.signer,
		BuildVersion,
		app.db,
		app.directory,
		app.logger,
	)

	router.Authenticator = app.authenticator
	router.Registration = app.registration
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
