// Package middleware holds the HTTP middleware chain used by the segmentation
// API: request ids, structured request logging, panic recovery, a global token
// bucket rate limiter and OpenTelemetry tracing plus request metrics.
package middleware
