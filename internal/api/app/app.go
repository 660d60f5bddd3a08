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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/sneakdex/sneakdex-api/internal/api/http"
	"github.com/sneakdex/sneakdex-api/internal/api/identity"
	"github.com/sneakdex/sneakdex-api/internal/api/metrics"
	"github.com/sneakdex/sneakdex-api/internal/api/ratelimit"
	"github.com/sneakdex/sneakdex-api/internal/api/service"
	"github.com/sneakdex/sneakdex-api/internal/api/store"
	"github.com/sneakdex/sneakdex-api/internal/api/store/drivers/sqlite"
	"github.com/sneakdex/sneakdex-api/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the API service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db          store.Store
	redisClient redis.UniversalClient // nil when using the in-memory counter
	limiter     *ratelimit.Limiter
	resolver    identity.Resolver
	registry    *prometheus.Registry
	metrics     *metrics.Metrics

	// Services
	keyService          *service.KeyService
	subscriptionService *service.SubscriptionService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "sneakdex-api",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initMetrics()
	app.initLimiter()
	app.initIdentity()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("api service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
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
	app.logger.Info("shutting down api service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("api service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations.
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
	return nil
}

func (app *Application) initMetrics() {
	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.New(app.registry)
}

// initLimiter wires the quota counter. With REDIS_ADDR set the window is
// shared across replicas; otherwise a per-process in-memory counter is used.
func (app *Application) initLimiter() {
	var counter ratelimit.Counter
	if app.cfg.RedisAddr != "" {
		app.redisClient = redis.NewClient(&redis.Options{
			Addr:     app.cfg.RedisAddr,
			Password: app.cfg.RedisPassword,
		})
		counter = ratelimit.NewRedisCounter(app.redisClient, app.cfg.WindowSize)
		app.logger.Info("rate limiter using redis counter", "addr", app.cfg.RedisAddr)
	} else {
		counter = ratelimit.NewMemoryCounter(app.cfg.WindowSize)
		app.logger.Info("rate limiter using in-memory counter")
	}

	app.limiter = ratelimit.New(counter)
}

func (app *Application) initIdentity() {
	if app.cfg.AuthJWTSecret == "" {
		// Without a verification secret every caller is anonymous and the
		// default tier applies.
		app.resolver = identity.Anonymous
		app.logger.Warn("no identity secret configured, all callers are anonymous")
		return
	}

	app.resolver = identity.NewJWTResolver([]byte(app.cfg.AuthJWTSecret), app.cfg.AuthIssuer)
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.keyService = &service.KeyService{
		Store:   app.db,
		Prefix:  app.cfg.KeyPrefix,
		Metrics: app.metrics,
	}

	app.subscriptionService = &service.SubscriptionService{
		Store:    app.db,
		Payments: service.NullProcessor{},
	}
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	// Wire services to router
	router.KeyService = app.keyService
	router.SubscriptionService = app.subscriptionService
	router.Identity = app.resolver
	router.Registry = app.registry
	router.Gate = &httpapi.Gate{
		Keys:          app.keyService,
		Subscriptions: app.subscriptionService,
		Identity:      app.resolver,
		Limiter:       app.limiter,
		Metrics:       app.metrics,
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
