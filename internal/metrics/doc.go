// Package metrics exposes audit run counters to Prometheus.
package metrics
