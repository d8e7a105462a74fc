// Package middleware provides HTTP middleware for the metrics server:
// sanitized request logging and per-route Prometheus metrics.
package middleware
