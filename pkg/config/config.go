package config

import "time"

// Config is the root configuration structure for Arbor. It contains all
// configuration sections for the managed roots, scheduled servicing, change
// watching, the deletion history trail, and telemetry.
type Config struct {
	// Roots lists the managed directory trees and their retention
	// policies. At least one root is required.
	Roots []RootConfig `yaml:"roots"`

	// Scheduler contains configuration for periodic tree servicing.
	Scheduler SchedulerConfig `yaml:"scheduler"`

	// Watcher contains configuration for filesystem change watching.
	Watcher WatcherConfig `yaml:"watcher"`

	// History contains configuration for the deletion audit trail.
	History HistoryConfig `yaml:"history"`

	// Telemetry contains configuration for observability including
	// logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// RootConfig describes one managed directory tree and its retention policy.
type RootConfig struct {
	// Name identifies the root in logs, metrics and the history trail.
	// Must be unique across roots.
	Name string `yaml:"name"`

	// Path is the directory tree to manage.
	Path string `yaml:"path"`

	// Create controls whether the directory is created when absent.
	// Default: false
	Create bool `yaml:"create"`

	// Mode is the pruning granularity, "file" or "directory".
	// Default: "file"
	Mode string `yaml:"mode"`

	// Limits contains the retention limits. A zero value disables the
	// corresponding limit.
	Limits LimitsConfig `yaml:"limits"`

	// MaxDeletesPerCall caps how many entries one prune pass may delete.
	// Default: 16
	MaxDeletesPerCall int `yaml:"max_deletes_per_call"`

	// InitialCleanupIterations caps the cleanup passes run right after
	// startup. Default: 100
	InitialCleanupIterations int `yaml:"initial_cleanup_iterations"`

	// Watch enables filesystem change watching for this root.
	// Default: true
	Watch *bool `yaml:"watch"`
}

// LimitsConfig contains the retention limits for one root.
type LimitsConfig struct {
	// MaxItems limits the total tracked item count, root included.
	// A nonzero value must lie in [2, 1000000]. Default: 0 (disabled)
	MaxItems int64 `yaml:"max_items"`

	// MaxFiles limits the total tracked file count.
	// Default: 0 (disabled)
	MaxFiles int64 `yaml:"max_files"`

	// MaxTotalBytes limits the cumulative byte size of the tree.
	// Default: 0 (disabled)
	MaxTotalBytes int64 `yaml:"max_total_bytes"`

	// MaxAge limits the age of the oldest tracked entry.
	// Default: 0 (disabled)
	MaxAge time.Duration `yaml:"max_age"`
}

// SchedulerConfig contains configuration for periodic tree servicing.
type SchedulerConfig struct {
	// Schedule is a cron expression for servicing runs. An empty value
	// disables scheduled servicing. Default: "*/5 * * * *"
	Schedule string `yaml:"schedule"`
}

// WatcherConfig contains configuration for filesystem change watching.
type WatcherConfig struct {
	// Enabled controls whether watching is available at all. Individual
	// roots opt out with watch: false. Default: true
	Enabled *bool `yaml:"enabled"`

	// DebounceInterval is the quiet period before bulk change traffic is
	// folded into one tree refresh. Default: 500ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`
}

// HistoryConfig contains configuration for the deletion audit trail.
type HistoryConfig struct {
	// Enabled controls whether deletions are recorded. Default: false
	Enabled bool `yaml:"enabled"`

	// Backend selects the trail store, "memory" or "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file for the sqlite backend.
	// Default: "arbor-history.db"
	SQLitePath string `yaml:"sqlite_path"`

	// RetentionDays is how long trail records are kept. Records older
	// than this are cleaned up during scheduled servicing.
	// Default: 90
	RetentionDays int `yaml:"retention_days"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format ("json", "text").
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in logs.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether the metrics endpoint is served.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address for the metrics HTTP server.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path of the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix. Default: "arbor"
	Namespace string `yaml:"namespace"`
}
