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

	"github.com/redis/go-redis/v9"

	httpapi "github.com/cinderauth/cinder/internal/auth/http"
	"github.com/cinderauth/cinder/internal/auth/service"
	"github.com/cinderauth/cinder/internal/auth/store"
	memorydriver "github.com/cinderauth/cinder/internal/auth/store/drivers/memory"
	redisdriver "github.com/cinderauth/cinder/internal/auth/store/drivers/redis"
	"github.com/cinderauth/cinder/internal/auth/store/drivers/sqlite"
	"github.com/cinderauth/cinder/pkg/cryptox"
	"github.com/cinderauth/cinder/pkg/jwtx"
	"github.com/cinderauth/cinder/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the token core, its stores, and the HTTP surface
// together and owns their lifecycle.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db          *sqlite.Store // nil unless sqlite blacklist or persistent keys
	redisClient *redis.Client // nil unless redis blacklist
	blacklist   store.Blacklist
	keychain    *jwtx.Keychain

	tokenService        *service.TokenService
	keyRotationService  *service.KeyRotationService
	housekeepingService *service.HousekeepingService // nil unless sqlite blacklist

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initStores(); err != nil {
		return nil, err
	}

	// The keychain needs the database when running in persistent mode.
	var secrets store.SigningSecrets
	if cfg.KeyStorageMode == "persistent" {
		secrets = app.db
	}
	keychain, sealer, err := InitKeychain(context.Background(), cfg, secrets, app.logger)
	if err != nil {
		app.closeStores()
		return nil, fmt.Errorf("app: initialize signing secrets: %w", err)
	}
	app.keychain = keychain

	app.initServices(secrets, sealer)
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	if app.housekeepingService != nil {
		app.housekeepingService.Start()
	}

	app.logger.Info("auth service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"blacklist", app.cfg.BlacklistBackend,
		"key_storage", app.cfg.KeyStorageMode,
	)

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

// Shutdown gracefully stops the server, the background workers, and the
// stores, in that order.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.housekeepingService != nil {
		app.housekeepingService.Stop()
	}

	app.closeStores()
	app.logger.Info("auth service stopped")
	return nil
}

// initStores opens whichever persistence the configuration asks for. The
// SQLite store is shared between the blacklist and the signing secret
// table, so persistent key mode opens it even under a different
// blacklist backend.
func (app *Application) initStores() error {
	needSQLite := app.cfg.BlacklistBackend == "sqlite" || app.cfg.KeyStorageMode == "persistent"
	if needSQLite {
		dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
		db, err := sqlite.NewStore(dsn)
		if err != nil {
			return fmt.Errorf("app: open database: %w", err)
		}
		if err := db.ApplyMigrations(); err != nil {
			_ = db.Close()
			return fmt.Errorf("app: apply migrations: %w", err)
		}
		app.db = db
		app.logger.Info("database migrations applied", "file", app.cfg.DatabaseFile)
	}

	switch app.cfg.BlacklistBackend {
	case "sqlite":
		app.blacklist = app.db
	case "redis":
		app.redisClient = redis.NewClient(&redis.Options{
			Addr:     app.cfg.RedisAddr,
			Password: app.cfg.RedisPassword,
			DB:       app.cfg.RedisDB,
		})
		app.blacklist = redisdriver.NewBlacklist(app.redisClient)
	default:
		app.blacklist = memorydriver.NewBlacklist()
	}

	return nil
}

func (app *Application) closeStores() {
	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
		}
	}
}

func (app *Application) initServices(secrets store.SigningSecrets, sealer *cryptox.Sealer) {
	app.tokenService = &service.TokenService{
		Keychain:     app.keychain,
		Blacklist:    app.blacklist,
		Issuer:       app.cfg.Issuer,
		Audience:     app.cfg.Audience,
		AccessTTL:    app.cfg.AccessTTL,
		RefreshTTL:   app.cfg.RefreshTTL,
		TemporaryTTL: app.cfg.TemporaryTTL,
	}

	app.keyRotationService = &service.KeyRotationService{
		Keychain: app.keychain,
		Logger:   app.logger,
	}
	if secrets != nil {
		app.keyRotationService.Secrets = secrets
		app.keyRotationService.Sealer = sealer
		app.logger.Info("key rotation service enabled (persistent mode)")
	} else {
		app.logger.Info("key rotation service enabled (ephemeral mode)")
	}

	if app.cfg.BlacklistBackend == "sqlite" {
		app.housekeepingService = service.NewHousekeepingService(
			app.db,
			app.logger,
			app.cfg.HousekeepingInterval,
		)
	}
}

// initHTTP builds the router and the HTTP server around it.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.logger)
	router.TokenService = app.tokenService
	router.KeyRotationService = app.keyRotationService
	router.CookieName = app.cfg.CookieName
	router.RevokeOldRefreshTokens = app.cfg.RotateRevokesOld
	router.ReadyChecks = app.readyChecks()
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

func (app *Application) readyChecks() []httpapi.ReadyCheck {
	var checks []httpapi.ReadyCheck
	if app.db != nil {
		checks = append(checks, httpapi.ReadyCheck{Name: "database", Check: app.db.Ping})
	}
	if app.redisClient != nil {
		checks = append(checks, httpapi.ReadyCheck{
			Name: "redis",
			Check: func(ctx context.Context) error {
				return app.redisClient.Ping(ctx).Err()
			},
		})
	}
	checks = append(checks, httpapi.ReadyCheck{
		Name: "signer",
		Check: func(context.Context) error {
			if len(app.keychain.Secret(jwtx.CategoryAccess)) == 0 ||
				len(app.keychain.Secret(jwtx.CategoryRefresh)) == 0 {
				return fmt.Errorf("no signing secrets loaded")
			}
			return nil
		},
	})
	return checks
}
