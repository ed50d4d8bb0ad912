// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/expdynts/expwatch/internal/catalog"
	catalogpostgres "github.com/expdynts/expwatch/internal/catalog/postgres"
	"github.com/expdynts/expwatch/internal/config"
	"github.com/expdynts/expwatch/internal/notify"
	"github.com/expdynts/expwatch/internal/notify/whatsapp"
	"github.com/expdynts/expwatch/internal/pkg/ctxlog"
	"github.com/expdynts/expwatch/internal/pkg/httputil"
	"github.com/expdynts/expwatch/internal/pkg/metrics"
	"github.com/expdynts/expwatch/internal/pkg/postgres"
	"github.com/expdynts/expwatch/internal/queue"
	queuepostgres "github.com/expdynts/expwatch/internal/queue/postgres"
	"github.com/expdynts/expwatch/internal/scheduler"
	"github.com/expdynts/expwatch/internal/version"
	"github.com/expdynts/expwatch/internal/watch"
	watchpostgres "github.com/expdynts/expwatch/internal/watch/postgres"
	"github.com/expdynts/expwatch/migrations"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	db            *pgxpool.Pool
	server        *http.Server
	metricsServer *http.Server
	bgCancel      context.CancelFunc

	fetchWorker  *queue.Worker
	notifyWorker *queue.Worker
	scheduler    *scheduler.Scheduler
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)
	slog.SetDefault(logger)

	if err := migrations.Up(cfg.Database.URL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	connectCtx, connectCancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer connectCancel()

	db, err := postgres.Connect(connectCtx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())

	app := &App{
		config:   cfg,
		logger:   logger,
		db:       db,
		bgCancel: bgCancel,
	}

	go app.collectDBMetrics(bgCtx)

	router, err := app.setup(bgCtx)
	if err != nil {
		db.Close()
		bgCancel()
		return nil, fmt.Errorf("setup application: %w", err)
	}

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Metrics server on separate port
	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

// Run starts the HTTP servers.
func (a *App) Run() error {
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
	)

	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application: trigger first, then
// the worker pools, then the servers, and the pool last.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down")

	a.bgCancel()

	if a.scheduler != nil {
		a.scheduler.Stop(ctx)
	}
	if a.fetchWorker != nil {
		a.fetchWorker.Stop()
	}
	if a.notifyWorker != nil {
		a.notifyWorker.Stop()
	}

	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := a.server.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
			mu.Unlock()
		}
	}()

	go func() {
		defer wg.Done()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
			mu.Unlock()
		}
	}()

	wg.Wait()

	a.db.Close()

	return errors.Join(errs...)
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

func (a *App) setup(ctx context.Context) (*chi.Mux, error) {
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	r.Use(httputil.CORSMiddleware(a.config.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", a.healthzHandler)
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", a.versionHandler)

	queueRepo := queuepostgres.NewRepository(a.db)
	watchRepo := watchpostgres.NewRepository(a.db)

	catalogRepo := catalogpostgres.NewRepository(a.db)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(catalogService)

	gateway, err := watch.NewHTTPGateway(watch.GatewayConfig{
		ProxyURL:      a.config.Fetch.ProxyURL,
		ProxyUser:     a.config.Fetch.ProxyUser,
		ProxyPassword: a.config.Fetch.ProxyPassword,
		Timeout:       a.config.Fetch.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create fetch gateway: %w", err)
	}

	fetchProcessor := watch.NewProcessor(watchRepo, gateway, catalogService, queueRepo)
	a.fetchWorker = queue.NewWorker(workerConfig(queue.QueueFetch, a.config.Fetch.Worker), queueRepo, fetchProcessor)
	a.fetchWorker.Start(ctx)

	sender := whatsapp.NewSender(whatsapp.Config{
		APIURL:        a.config.Notify.APIURL,
		APIKey:        a.config.Notify.APIKey,
		Timeout:       a.config.Notify.Timeout,
		RatePerSecond: a.config.Notify.RatePerSecond,
	})
	notifyProcessor := notify.NewProcessor(sender, notify.ProcessorConfig{
		SkipEmptyRecipient: a.config.Notify.SkipEmptyRecipient,
	})
	a.notifyWorker = queue.NewWorker(workerConfig(queue.QueueNotify, a.config.Notify.Worker), queueRepo, notifyProcessor)
	a.notifyWorker.Start(ctx)

	go a.collectQueueMetrics(ctx, queueRepo)

	watchService := watch.NewService(watchRepo)
	watchHandler := watch.NewHandler(watchService)

	sched, err := scheduler.New(watchRepo, queueRepo, scheduler.Config{
		Spec:    a.config.Scheduler.Spec,
		Enabled: a.config.Scheduler.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	sched.Start()
	a.scheduler = sched
	schedulerHandler := scheduler.NewHandler(sched)

	queueHandler := queue.NewHandler(queueRepo)

	r.Route("/api/v1", func(r chi.Router) {
		watchHandler.RegisterRoutes(r)
		catalogHandler.RegisterRoutes(r)
		schedulerHandler.RegisterRoutes(r)
		queueHandler.RegisterRoutes(r)
	})

	return r, nil
}

func workerConfig(name queue.Name, cfg config.WorkerConfig) queue.WorkerConfig {
	return queue.WorkerConfig{
		Queue:             name,
		Concurrency:       cfg.Concurrency,
		BatchSize:         cfg.BatchSize,
		PollInterval:      cfg.PollInterval,
		VisibilityTimeout: cfg.VisibilityTimeout,
		MaxAttempts:       cfg.MaxAttempts,
		InitialBackoff:    cfg.InitialBackoff,
		MaxBackoff:        cfg.MaxBackoff,
		BackoffMultiplier: cfg.BackoffMultiplier,
	}
}

func (a *App) collectDBMetrics(ctx context.Context) {
	// Collect immediately on start
	metrics.RecordDBPoolMetrics(a.db)

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			metrics.RecordDBPoolMetrics(a.db)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) collectQueueMetrics(ctx context.Context, repo queue.Repository) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, name := range []queue.Name{queue.QueueFetch, queue.QueueNotify} {
				stats, err := repo.Stats(ctx, name)
				if err != nil {
					slog.Error("failed to get queue stats", "queue", name, "error", err)
					continue
				}
				queue.RecordQueueStats(name, stats)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"version":    version.Version,
		"commit":     version.GitCommit,
		"build_date": version.BuildDate,
	})
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
