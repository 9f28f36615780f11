package http

import (
	"context"

	"bankcli/internal/analytics"
	"bankcli/internal/segmentation"
	"bankcli/internal/services"
)

// SegmentServiceInterface is what the segment and analytics handlers need
type SegmentServiceInterface interface {
	Segments(ctx context.Context) (*services.SegmentsView, error)
	Segment(ctx context.Context, clusterID int) (*segmentation.Segment, error)
	Assignment(ctx context.Context, customerID int) (*services.AssignmentView, error)
	TopCustomers(ctx context.Context, limit int) ([]analytics.CustomerSpend, error)
	Cities(ctx context.Context) ([]analytics.CitySpend, error)
}

// HealthServiceInterface is what the health handler needs
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
}
