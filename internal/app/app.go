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

	"bankcli/internal/config"
	"bankcli/internal/infrastructure"
	customMiddleware "bankcli/internal/middleware"
	"bankcli/internal/segmentation"
	"bankcli/internal/services"
	transport "bankcli/internal/transport/http"
)

// AppName is reported in logs and health responses
const AppName = "bank-segmentation"

// Application wires configuration, services and the HTTP server together
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Segments      *services.SegmentService
	Health        *services.HealthService
	OTelProviders *infrastructure.OTelProviders
	Logger        *slog.Logger
}

// NewApplication builds the service graph. dataset may be nil, in which case
// the CSV files under cfg.Paths.DataDir are used.
func NewApplication(cfg *config.Config, dataset services.Dataset, providers *infrastructure.OTelProviders, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if dataset == nil {
		dataset = services.NewFileDataset(cfg.Paths, logger)
	}

	metrics, err := infrastructure.CreateSegmentationMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create segmentation metrics: %w", err)
	}

	segmenter, err := segmentation.NewSegmenter(cfg.Segmentation, logger,
		segmentation.WithTracer(providers.Tracer),
		segmentation.WithMetrics(metrics))
	if err != nil {
		return nil, fmt.Errorf("failed to create segmenter: %w", err)
	}

	segments := services.NewSegmentService(dataset, segmenter, logger)

	a := &Application{
		Config:        cfg,
		Segments:      segments,
		Health:        services.NewHealthService(infrastructure.ServiceVersion, segments, logger),
		OTelProviders: providers,
		Logger:        logger,
	}

	if err := a.setupRoutes(); err != nil {
		return nil, err
	}
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return a, nil
}

func (a *Application) setupRoutes() error {
	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
	if err != nil {
		return fmt.Errorf("failed to create otel middleware: %w", err)
	}

	r := chi.NewRouter()
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(otelMiddleware.Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))

	r.Handle("/metrics", a.OTelProviders.MetricsHandler())

	healthHandler := transport.NewHealthHandler(a.Health, a.Logger)
	segmentHandler := transport.NewSegmentHandler(a.Segments, a.Logger)
	limiter := customMiddleware.NewRateLimiter(a.Config.Server.RateLimit, a.Config.Server.RateBurst, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.HealthCheck)
		r.With(limiter.Handler).Mount("/v1", segmentHandler.Routes())
	})

	a.Router = r
	return nil
}

// Start loads the segmentation and starts serving. Server failures cancel ctx
// through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", infrastructure.ServiceVersion),
		slog.Int("port", a.Config.Server.Port),
		slog.String("data_dir", a.Config.Paths.DataDir))

	if err := a.Segments.Refresh(ctx); err != nil {
		return fmt.Errorf("initial segmentation failed: %w", err)
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the server and flushes telemetry
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	if err := a.Segments.Close(); err != nil {
		a.Logger.ErrorContext(ctx, "Error closing segment service", slog.String("error", err.Error()))
	}
	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run serves until SIGINT/SIGTERM or a server failure. SIGHUP reloads the
// dataset and re-runs the segmentation.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	for {
		select {
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				if err := a.Segments.Refresh(ctx); err != nil {
					a.Logger.ErrorContext(ctx, "Reload failed", slog.String("error", err.Error()))
				}
				continue
			}
			a.Logger.InfoContext(ctx, "Received shutdown signal", slog.String("signal", sig.String()))
		case <-ctx.Done():
			a.Logger.ErrorContext(ctx, "Server stopped unexpectedly")
		}
		return a.Stop(context.Background())
	}
}
