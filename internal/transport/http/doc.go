// Package http provides the HTTP API: market data endpoints over the
// cached dataset, health checks and Prometheus metrics.
package http
