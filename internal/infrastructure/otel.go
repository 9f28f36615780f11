package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"bankcli/internal/config"
)

const (
	ServiceVersion = "0.3.0"
	MeterName      = "bankcli"
)

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Registry       *prometheus.Registry
	Logger         *slog.Logger
}

// InitializeOTel initializes tracing and metrics according to cfg.
// Disabled signals fall back to no-op implementations so callers never nil-check.
func InitializeOTel(cfg config.TelemetryConfig, logger *slog.Logger) (*OTelProviders, error) {
	if logger == nil {
		logger = GetLogger()
	}

	ctx := context.Background()

	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", ServiceVersion),
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	res, err := createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{
		Tracer:   tracenoop.NewTracerProvider().Tracer(MeterName),
		Meter:    metricnoop.NewMeterProvider().Meter(MeterName),
		Registry: prometheus.NewRegistry(),
		Logger:   logger,
	}

	if cfg.EnableTracing {
		if err := initializeTracing(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.EnableMetrics {
		if err := initializeMetrics(ctx, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return providers, nil
}

// createResource creates the OpenTelemetry resource
func createResource(cfg config.TelemetryConfig) (*resource.Resource, error) {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(ServiceVersion),
		attribute.String("service.instance.id", generateInstanceID()),
	), nil
}

// initializeTracing sets up OpenTelemetry tracing
func initializeTracing(ctx context.Context, cfg config.TelemetryConfig, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case "stdout":
		// Spans go to stderr so rendered reports on stdout stay clean
		exporter, err = stdouttrace.New(
			stdouttrace.WithWriter(os.Stderr),
			stdouttrace.WithPrettyPrint(),
		)
	case "none":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(ServiceVersion))

	otel.SetTracerProvider(tp)

	providers.Logger.InfoContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter))

	return nil
}

// initializeMetrics sets up an OTel meter provider backed by a Prometheus registry
func initializeMetrics(ctx context.Context, res *resource.Resource, providers *OTelProviders) error {
	exporter, err := otelprom.New(otelprom.WithRegisterer(providers.Registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	providers.MeterProvider = mp
	providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(ServiceVersion))

	otel.SetMeterProvider(mp)

	providers.Logger.InfoContext(ctx, "Metrics initialized", slog.String("exporter", "prometheus"))
	return nil
}

// MetricsHandler serves the provider's Prometheus registry
func (p *OTelProviders) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{})
}

// WriteMetricsTextfile dumps the registry in the node_exporter textfile format.
// Batch commands use this instead of serving /metrics.
func (p *OTelProviders) WriteMetricsTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, p.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down OpenTelemetry providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}

	p.Logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

// SegmentationMetrics holds the instruments recorded by the segmentation pipeline.
// A nil *SegmentationMetrics is valid and records nothing.
type SegmentationMetrics struct {
	StageDuration        metric.Float64Histogram
	StageErrors          metric.Int64Counter
	CustomersSegmented   metric.Int64Counter
	InactiveCustomers    metric.Int64Counter
	RestartInertia       metric.Float64Histogram
	RestartIterations    metric.Int64Histogram
	DegenerateDimensions metric.Int64Counter
}

// CreateSegmentationMetrics creates the segmentation instruments on meter
func CreateSegmentationMetrics(meter metric.Meter) (*SegmentationMetrics, error) {
	stageDuration, err := meter.Float64Histogram(
		"segmentation_stage_duration_seconds",
		metric.WithDescription("Duration of each segmentation stage in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stageErrors, err := meter.Int64Counter(
		"segmentation_stage_errors_total",
		metric.WithDescription("Total number of failed segmentation stages"),
	)
	if err != nil {
		return nil, err
	}

	customersSegmented, err := meter.Int64Counter(
		"segmentation_customers_total",
		metric.WithDescription("Total number of customers assigned to a segment"),
	)
	if err != nil {
		return nil, err
	}

	inactiveCustomers, err := meter.Int64Counter(
		"segmentation_inactive_customers_total",
		metric.WithDescription("Customers left out of segmentation because they have no transactions"),
	)
	if err != nil {
		return nil, err
	}

	restartInertia, err := meter.Float64Histogram(
		"segmentation_restart_inertia",
		metric.WithDescription("Inertia reached by each k-means restart"),
	)
	if err != nil {
		return nil, err
	}

	restartIterations, err := meter.Int64Histogram(
		"segmentation_restart_iterations",
		metric.WithDescription("Lloyd iterations run by each k-means restart"),
	)
	if err != nil {
		return nil, err
	}

	degenerate, err := meter.Int64Counter(
		"segmentation_degenerate_dimensions_total",
		metric.WithDescription("Feature dimensions found constant across the population"),
	)
	if err != nil {
		return nil, err
	}

	return &SegmentationMetrics{
		StageDuration:        stageDuration,
		StageErrors:          stageErrors,
		CustomersSegmented:   customersSegmented,
		InactiveCustomers:    inactiveCustomers,
		RestartInertia:       restartInertia,
		RestartIterations:    restartIterations,
		DegenerateDimensions: degenerate,
	}, nil
}

// RecordStage records a stage's duration and, when err is non-nil, its failure
func (m *SegmentationMetrics) RecordStage(ctx context.Context, stage string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("stage", stage))
	m.StageDuration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		m.StageErrors.Add(ctx, 1, attrs)
	}
}

// RecordRestart records the outcome of one k-means restart
func (m *SegmentationMetrics) RecordRestart(ctx context.Context, inertia float64, iterations int, converged bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Bool("converged", converged))
	m.RestartInertia.Record(ctx, inertia, attrs)
	m.RestartIterations.Record(ctx, int64(iterations), attrs)
}

// RecordDegenerate counts a constant feature dimension
func (m *SegmentationMetrics) RecordDegenerate(ctx context.Context, dimension string) {
	if m == nil {
		return
	}
	m.DegenerateDimensions.Add(ctx, 1, metric.WithAttributes(attribute.String("dimension", dimension)))
}

// RecordPopulation records how many customers were segmented and how many were inactive
func (m *SegmentationMetrics) RecordPopulation(ctx context.Context, segmented, inactive int) {
	if m == nil {
		return
	}
	m.CustomersSegmented.Add(ctx, int64(segmented))
	m.InactiveCustomers.Add(ctx, int64(inactive))
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// TraceIDFromContext extracts trace ID from context for logging correlation
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}
