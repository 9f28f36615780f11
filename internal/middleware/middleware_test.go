package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"bankcli/internal/config"
	"bankcli/internal/infrastructure"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{name: "generated", incoming: ""},
		{name: "propagated", incoming: "req-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
				assert.Equal(t, seen, infrastructure.GetTraceID(r.Context()))
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.NotEmpty(t, seen)
			assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
			if tt.incoming != "" {
				assert.Equal(t, tt.incoming, seen)
			}
		})
	}
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_SERVER_ERROR")
}

func TestRateLimiter(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("burst then reject", func(t *testing.T) {
		h := NewRateLimiter(0.001, 2, discardLogger()).Handler(ok)
		codes := make([]int, 3)
		for i := range codes {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			codes[i] = rec.Code
			if rec.Code == http.StatusTooManyRequests {
				assert.NotEmpty(t, rec.Header().Get("Retry-After"))
			}
		}
		assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
	})

	t.Run("disabled", func(t *testing.T) {
		h := NewRateLimiter(0, 0, discardLogger()).Handler(ok)
		for i := 0; i < 50; i++ {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			require.Equal(t, http.StatusNoContent, rec.Code)
		}
	})
}

func TestOTelMiddleware(t *testing.T) {
	cfg := config.Default().Telemetry
	cfg.EnableMetrics = true
	providers, err := infrastructure.InitializeOTel(cfg, discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	providers.Tracer = tp.Tracer("test")

	otelMW, err := NewOTelMiddleware(providers)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(otelMW.Handler)
	r.Get("/api/v1/segments/{clusterID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/segments/9", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/v1/segments/{clusterID}", spans[0].Name())

	scrape := httptest.NewRecorder()
	providers.MetricsHandler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := scrape.Body.String()
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, `route="/api/v1/segments/{clusterID}"`)
}
