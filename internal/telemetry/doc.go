// Package telemetry exposes scheduler and presenter activity as Prometheus
// metrics.
package telemetry
