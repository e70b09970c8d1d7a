// Package telemetry provides observability for Arbor.
//
// # Components
//
//   - logging: structured slog-based logging setup
//   - metrics: Prometheus metrics collection
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	collector := metrics.NewCollector(metrics.Config{Enabled: true}, nil)
//	collector.UpdateTreeTotals("logs", 120, 96, 1<<30)
//
// The metrics collector exposes its registry through an HTTP handler
// suitable for mounting at /metrics.
package telemetry
