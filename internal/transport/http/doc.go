// Package http implements the HTTP handlers of the segmentation API.
//
// Handlers are thin: they parse path and query parameters, call a service
// interface and render JSON through go-chi/render. Service errors are mapped
// to status codes by apperrors.FromAppError.
//
// Routes (mounted by internal/app):
//
//	GET /api/health
//	GET /api/v1/segments
//	GET /api/v1/segments/{clusterID}
//	GET /api/v1/assignments/{customerID}
//	GET /api/v1/analytics/top-customers?limit=N
//	GET /api/v1/analytics/cities
package http
