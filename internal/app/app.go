package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"retailpulse/internal/analytics"
	"retailpulse/internal/config"
	apierrors "retailpulse/internal/errors"
	"retailpulse/internal/exporter"
	"retailpulse/internal/files"
	"retailpulse/internal/infrastructure"
	customMiddleware "retailpulse/internal/middleware"
	"retailpulse/internal/services"
	handlers "retailpulse/internal/transport/http"
	"retailpulse/internal/validation"
	ws "retailpulse/internal/websocket"
	"retailpulse/pkg/contracts"
)

// AppName is the display name logged at startup.
const AppName = "RetailPulse"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.AppMetrics
	WebSocketHub  *ws.Hub
	Analysis      *services.AnalysisService
	Health        *services.HealthService

	errorHandler *apierrors.ErrorHandler
	startedAt    time.Time
}

// NewApplication loads the configuration, initializes the process logger
// and builds the application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return New(cfg, logger)
}

// New wires every component from cfg. It does not start listening.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		errorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
		startedAt:     time.Now(),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()
	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	meter := a.OTelProviders.Meter

	metrics, err := infrastructure.NewAppMetrics(meter)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}
	a.Metrics = metrics
	if err := infrastructure.RegisterRuntimeGauges(meter, a.startedAt); err != nil {
		return fmt.Errorf("failed to register runtime gauges: %w", err)
	}

	hubMetrics, err := ws.NewHubMetrics(meter)
	if err != nil {
		return fmt.Errorf("failed to create websocket metrics: %w", err)
	}
	a.WebSocketHub = ws.NewHub(a.Logger, hubMetrics)
	broadcaster := ws.NewRunBroadcaster(a.WebSocketHub)

	pipeline := analytics.NewPipeline(a.Logger,
		analytics.WithObserver(broadcaster),
		analytics.WithObserver(infrastructure.NewStageObserver(metrics)))

	fileValidator := validation.NewFileValidator(a.Logger, a.Config.Analysis.MaxUploadBytes)
	fileManager := files.NewManager(a.Config.Paths, fileValidator, a.Logger)

	a.Analysis = services.NewAnalysisService(services.AnalysisDeps{
		Pipeline:  pipeline,
		Files:     fileManager,
		Discovery: files.NewDiscovery(a.Config.Paths.DataDir),
		Exporter:  exporter.New(fileManager, a.Logger, metrics),
		Notifier:  broadcaster,
		Metrics:   metrics,
		Tracer:    a.OTelProviders.Tracer,
		Analysis:  a.Config.Analysis,
		SheetsCfg: a.Config.Sheets,
		Logger:    a.Logger,
	})
	a.Health = services.NewHealthService(a.Config.Paths, a.WebSocketHub, a.Analysis, a.Logger)
	return nil
}

// setupRouter configures the HTTP router with all routes. The WebSocket
// upgrade and the Prometheus scrape skip the logging, timeout and API key
// layers.
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	wsHandler := ws.NewHandler(a.WebSocketHub, a.Config.WebSocket, a.allowedOrigins(), a.Logger)
	r.With(customMiddleware.WebSocketTraceMiddleware(a.OTelProviders.Tracer, a.Logger)).Handle("/ws", wsHandler)

	metricsHandler := handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.startedAt)
	r.Get("/metrics", metricsHandler.Prometheus)

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → the rest
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.errorHandler))
		r.Use(customMiddleware.SecurityHeaders)
		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.corsConfig()))
		}
		if rl := a.Config.Security.RateLimit; rl.Enabled {
			r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger, a.errorHandler).Handler)
		}
		r.Use(customMiddleware.APIKeyAuth(a.Config.Security.APIKeyHash, a.Logger, a.errorHandler))

		a.setupAPIRoutes(r, metricsHandler)
	})

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router, metricsHandler *handlers.MetricsHandler) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

		handlers.NewHealthHandler(a.Health, a.Logger).Register(r)
		r.Mount("/metrics", metricsHandler.Routes())

		analysisHandler := handlers.NewAnalysisHandler(
			a.Analysis,
			customMiddleware.NewValidator(),
			a.errorHandler,
			a.Config.Analysis.MaxUploadBytes,
			a.Logger,
		)
		r.Mount("/", analysisHandler.Routes())
	})
}

func (a *Application) allowedOrigins() []string {
	if !a.Config.Security.EnableCORS {
		return nil
	}
	return a.Config.Security.AllowedOrigins
}

func (a *Application) corsConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			customMiddleware.APIKeyHeader,
		},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the hub, loads the startup dataset when configured and
// begins serving. A listener failure calls cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("data_dir", a.Config.Paths.DataDir),
		slog.String("export_dir", a.Config.Paths.ExportDir))

	a.WebSocketHub.Start()

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "startup health check warnings", slog.String("warnings", err.Error()))
	}

	if a.Config.Analysis.LoadSample {
		if _, err := a.Analysis.LoadSample(ctx, 0); err != nil {
			a.Logger.WarnContext(ctx, "startup sample dataset failed", slog.String("error", err.Error()))
		}
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}

	a.WebSocketHub.Stop()

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "application shutdown complete")
	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, fmt.Errorf("close log file: %w", err))
	}
	return errors.Join(errs...)
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.Info("received shutdown signal")

	return a.Stop(context.Background())
}

// performStartupHealthCheck verifies that the data and export directories
// are writable.
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	var warnings []string

	directories := map[string]string{
		"data":   a.Config.Paths.DataDir,
		"export": a.Config.Paths.ExportDir,
	}
	for name, dir := range directories {
		testFile := filepath.Join(dir, ".write_test")
		if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s directory not writable: %s", name, dir))
			continue
		}
		os.Remove(testFile)
	}

	if creds := a.Config.Sheets.CredentialsFile; creds != "" {
		if _, err := os.Stat(creds); err != nil {
			a.Logger.InfoContext(ctx, "google sheets credentials not found",
				slog.String("path", creds))
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}

	a.Logger.InfoContext(ctx, "startup health check passed")
	return nil
}
