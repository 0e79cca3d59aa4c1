// Package metrics exposes queue activity to Prometheus.
package metrics
