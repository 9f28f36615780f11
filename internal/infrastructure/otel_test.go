package infrastructure

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankcli/internal/config"
)

func TestInitializeOTel_Disabled(t *testing.T) {
	cfg := config.Default().Telemetry
	cfg.EnableMetrics = false
	cfg.EnableTracing = false

	providers, err := InitializeOTel(cfg, nil)
	require.NoError(t, err)

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Tracer, "no-op tracer expected")
	assert.NotNil(t, providers.Meter, "no-op meter expected")
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_UnsupportedExporter(t *testing.T) {
	cfg := config.Default().Telemetry
	cfg.EnableTracing = true
	cfg.TraceExporter = "jaeger"

	_, err := InitializeOTel(cfg, nil)
	assert.Error(t, err)
}

func TestSegmentationMetrics_Textfile(t *testing.T) {
	cfg := config.Default().Telemetry
	cfg.EnableMetrics = true

	providers, err := InitializeOTel(cfg, nil)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreateSegmentationMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordStage(ctx, "aggregate", 120*time.Millisecond, nil)
	metrics.RecordStage(ctx, "cluster", time.Second, errors.New("k > N"))
	metrics.RecordRestart(ctx, 42.5, 7, true)
	metrics.RecordDegenerate(ctx, "tx_count")
	metrics.RecordPopulation(ctx, 990, 10)

	path := filepath.Join(t.TempDir(), "segmentation.prom")
	require.NoError(t, providers.WriteMetricsTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(content)
	assert.Contains(t, text, "segmentation_stage_duration_seconds")
	assert.Contains(t, text, "segmentation_stage_errors_total")
	assert.Contains(t, text, "segmentation_customers_total")
	assert.Contains(t, text, "segmentation_degenerate_dimensions_total")

	rec := httptest.NewRecorder()
	providers.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "segmentation_restart_iterations")
}

func TestSegmentationMetrics_NilIsNoop(t *testing.T) {
	var metrics *SegmentationMetrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		metrics.RecordStage(ctx, "standardize", time.Millisecond, nil)
		metrics.RecordRestart(ctx, 1, 1, false)
		metrics.RecordDegenerate(ctx, "avg_spend")
		metrics.RecordPopulation(ctx, 1, 0)
	})
}
