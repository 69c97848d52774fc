package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"hsecli/internal/config"
	"hsecli/internal/files"
	"hsecli/internal/infrastructure"
	"hsecli/internal/middleware"
	"hsecli/internal/operations"
	"hsecli/internal/services"
	"hsecli/internal/store"
	handlers "hsecli/internal/transport/http"
	ws "hsecli/internal/websocket"
)

// Version is the application version reported by /api/health.
const Version = "1.0.0"

// snapshotHistory bounds how many refresh snapshots are retained.
const snapshotHistory = 30

// Application wires the dashboard server together.
type Application struct {
	Config *config.Config
	Paths  *config.Paths
	Logger *slog.Logger

	Router *chi.Mux
	Server *http.Server

	OTelProviders *infrastructure.OTelProviders
	Snapshots     *store.Store
	Hub           *ws.Hub
	Manager       *operations.Manager
	RateLimiter   *middleware.RateLimiter

	DataService       *services.DataService
	OperationsService *services.OperationsService
}

// New builds the application from configuration.
func New() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	paths, err := config.NewPaths("", cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	logger.Info("application starting",
		slog.String("version", Version),
		slog.Int("port", cfg.Server.Port),
		slog.String("sources_dir", paths.SourcesDir),
		slog.String("exports_dir", paths.ExportsDir))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("initialize telemetry: %w", err)
	}

	snapshots, err := store.Open(paths.DBFile)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		Snapshots:     snapshots,
	}

	if err := app.initializeServices(); err != nil {
		snapshots.Close()
		return nil, err
	}

	app.setupRouter()
	app.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

func (a *Application) initializeServices() error {
	a.Hub = ws.NewHub()

	metrics, err := infrastructure.NewPipelineMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("create pipeline metrics: %w", err)
	}

	a.Manager = operations.NewManager(
		RefreshStages(a.Paths, a.Config.Processing, a.Snapshots),
		operations.WithPublisher(a.Hub),
		operations.WithMetrics(metrics),
	)

	a.DataService = services.NewDataService(a.Snapshots, files.NewManager(a.Paths.ExportsDir), a.Config.Processing, a.Logger)
	a.OperationsService = services.NewOperationsService(a.Manager, a.Config.Refresh, a.Logger)
	a.RateLimiter = middleware.NewRateLimiter(a.Config.Server.RateLimitRPS, a.Config.Server.RateLimitBurst)

	return nil
}

// RefreshStages builds the refresh pipeline in execution order.
func RefreshStages(paths *config.Paths, processing config.ProcessingConfig, snapshots *store.Store) []operations.Stage {
	return []operations.Stage{
		operations.NewDiscoverStage(files.NewDiscovery(paths.SourcesDir)),
		operations.NewParseStage(processing),
		operations.NewUnifyStage(),
		operations.NewAggregateStage(processing, snapshots),
		operations.NewExportStage(paths),
		operations.NewPersistStage(snapshots, snapshotHistory),
	}
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.TraceID)

	// The websocket route must not sit behind middleware that wraps the
	// ResponseWriter, or the upgrade hijack fails.
	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		ws.ServeWS(a.Hub, w, req)
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestLogger)
		r.Use(chimiddleware.Recoverer)
		r.Use(a.RateLimiter.Handler)

		r.Route("/api", func(r chi.Router) {
			healthHandler := handlers.NewHealthHandler(Version, a.Snapshots, a.Logger)
			r.Get("/health", healthHandler.Health)

			r.Mount("/data", handlers.NewDataHandler(a.DataService, a.Logger).Routes())
			r.Mount("/operations", handlers.NewOperationsHandler(a.OperationsService, a.Logger).Routes())
		})
	})

	a.Router = r
}

// Run starts the server and blocks until an interrupt or a fatal
// server error, then shuts everything down.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.Hub.Run(ctx)

	if err := a.OperationsService.StartScheduler(); err != nil {
		return err
	}

	serverErr := make(chan error, 1)
	go func() {
		a.Logger.Info("http server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.Logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		a.Logger.Error("http server failed", slog.String("error", err.Error()))
		a.shutdown(ctx)
		return err
	}

	return a.shutdown(ctx)
}

func (a *Application) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	a.OperationsService.StopScheduler()
	a.RateLimiter.Stop()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	if err := a.Snapshots.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close snapshot store: %w", err))
	}
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, fmt.Errorf("close log file: %w", err))
	}

	a.Logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
