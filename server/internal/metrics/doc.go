// Package metrics exposes request counters and gauges at GET /metrics in the
// Prometheus text format, backed by a private client_golang registry.
package metrics
