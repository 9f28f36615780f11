package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// ReadyChecker reports whether a dependency can serve requests
type ReadyChecker interface {
	Ready() bool
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	segments  ReadyChecker
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]string      `json:"services,omitempty"`
}

// NewHealthService creates a new health service
func NewHealthService(version string, segments ReadyChecker, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		segments:  segments,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck reports "ok" once segments are loaded and "degraded" before
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  map[string]string{"segments": "ready"},
		Runtime: map[string]interface{}{
			"uptime_seconds": time.Since(hs.startTime).Seconds(),
			"go_version":     runtime.Version(),
			"goroutines":     runtime.NumGoroutine(),
		},
	}
	if hs.segments == nil || !hs.segments.Ready() {
		status.Status = "degraded"
		status.Services["segments"] = "not_ready"
	}

	hs.logger.DebugContext(ctx, "Health check", slog.String("status", status.Status))
	return status
}
