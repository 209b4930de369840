// Package app wires configuration, telemetry, data loading and the HTTP
// server into a runnable application.
//
// Startup order matters: configuration first, then logging, then
// telemetry, then the dataset load. A failure in any of these aborts
// startup; the server never comes up over a partial dataset.
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

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"variantpulse/internal/config"
	"variantpulse/internal/dataset"
	"variantpulse/internal/exporter"
	"variantpulse/internal/infrastructure"
	custommw "variantpulse/internal/middleware"
	"variantpulse/internal/services"
	"variantpulse/internal/socrata"
	httptransport "variantpulse/internal/transport/http"
	"variantpulse/pkg/contracts"
)

// Application holds all application dependencies and services.
type Application struct {
	Config *config.Config
	Logger *slog.Logger

	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics

	Dataset        *dataset.Dataset
	VariantService *services.VariantService
	HealthService  *services.HealthService
	Exporter       *exporter.Exporter

	server *http.Server
}

// New creates the application: loads config, initializes logging and
// telemetry, fetches and normalizes the source data, and builds the
// router. Any failure is fatal.
func New(ctx context.Context) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	app := &Application{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initTelemetry(ctx); err != nil {
		return nil, err
	}

	if err := app.loadDataset(ctx); err != nil {
		return nil, err
	}

	app.initServices()
	app.server = app.createServer()

	return app, nil
}

func (app *Application) initTelemetry(ctx context.Context) error {
	providers, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), app.Logger)
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	app.OTelProviders = providers

	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("create metrics: %w", err)
	}
	app.Metrics = metrics

	return nil
}

// loadDataset fetches the raw rows from the source, normalizes them and
// builds the immutable dataset.
func (app *Application) loadDataset(ctx context.Context) error {
	ctx, span := otel.Tracer(infrastructure.MeterName).Start(ctx, "dataset.load")
	defer span.End()

	start := time.Now()

	client := socrata.NewClient(socrata.Config{
		Domain:   app.Config.Source.Domain,
		Dataset:  app.Config.Source.Dataset,
		AppToken: app.Config.Source.AppToken,
		Limit:    app.Config.Source.Limit,
		Timeout:  app.Config.Source.Timeout,
		RPS:      app.Config.Source.RPS,
	}, app.Logger)

	raws, err := client.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch source data: %w", err)
	}

	observations, err := dataset.NormalizeAll(raws)
	if err != nil {
		return fmt.Errorf("normalize source data: %w", err)
	}

	ds, err := dataset.Build(observations)
	if err != nil {
		return fmt.Errorf("build dataset: %w", err)
	}
	app.Dataset = ds
	span.SetAttributes(
		attribute.Int("dataset.rows", ds.Len()),
		attribute.Int("dataset.variants", len(ds.Variants())),
	)

	elapsed := time.Since(start)
	if app.Metrics != nil {
		app.Metrics.RowsIngested.Add(ctx, int64(ds.Len()))
		app.Metrics.DatasetBuildSeconds.Record(ctx, elapsed.Seconds())
	}

	app.Logger.InfoContext(ctx, "dataset loaded",
		slog.Int("rows", ds.Len()),
		slog.Int("variants", len(ds.Variants())),
		slog.Time("min_week", ds.MinWeek()),
		slog.Time("max_week", ds.MaxWeek()),
		slog.String("duration", elapsed.String()),
	)

	return nil
}

func (app *Application) initServices() {
	app.VariantService = services.NewVariantService(app.Dataset, app.Logger, app.Metrics)
	app.HealthService = services.NewHealthService(contracts.Version)
	app.HealthService.MarkReady(app.Dataset.Len())
	app.Exporter = exporter.New(app.Logger)
}

// Router builds the HTTP routing tree.
func (app *Application) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)
	if app.OTelProviders != nil && app.OTelProviders.Tracer != nil {
		r.Use(custommw.Tracing(app.OTelProviders.Tracer))
	}
	r.Use(custommw.StructuredLogger(app.Logger))
	r.Use(custommw.Recoverer(app.Logger))
	r.Use(custommw.SecurityHeaders)
	r.Use(custommw.Compress(5))
	r.Use(chimw.StripSlashes)

	if app.Config.Security.EnableCORS {
		r.Use(custommw.CORS(custommw.CORSConfig{
			AllowedOrigins: app.Config.Security.AllowedOrigins,
			ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
			Logger:         app.Logger,
		}))
	}

	if app.Config.Security.RateLimit.Enabled {
		limiter := custommw.NewRateLimiter(
			app.Config.Security.RateLimit.RPS,
			app.Config.Security.RateLimit.Burst,
			app.Logger,
		)
		r.Use(limiter.Handler)
	}

	r.Use(custommw.Timeout(30*time.Second, app.Logger))

	variantsHandler := httptransport.NewVariantsHandler(app.VariantService, app.Exporter, app.Logger)
	healthHandler := httptransport.NewHealthHandler(app.HealthService)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/variants", variantsHandler.Routes())
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)
	})

	// Prometheus scrape endpoint stays outside the middleware-gated API tree
	if app.OTelProviders != nil && app.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", app.OTelProviders.PrometheusHTTP)
	}

	return r
}

func (app *Application) createServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", app.Config.Server.Port),
		Handler:      app.Router(),
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}
}

// Start begins serving HTTP requests. It blocks until the server stops.
func (app *Application) Start() error {
	app.Logger.Info("server starting",
		slog.String("addr", app.server.Addr),
		slog.String("version", contracts.Version),
	)

	if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server and telemetry.
func (app *Application) Stop(ctx context.Context) error {
	app.Logger.Info("server stopping")

	shutdownCtx, cancel := context.WithTimeout(ctx, app.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := app.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if app.OTelProviders != nil {
		if err := app.OTelProviders.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}

	return infrastructure.CloseLogFile()
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (app *Application) Run() error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		app.Logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		return app.Stop(context.Background())
	}
}
