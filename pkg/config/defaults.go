package config

import "time"

// Default values for configuration fields.
const (
	// Root defaults
	DefaultMode                     = "file"
	DefaultMaxDeletesPerCall        = 16
	DefaultInitialCleanupIterations = 100

	// Scheduler defaults
	DefaultSchedule = "*/5 * * * *"

	// Watcher defaults
	DefaultWatcherDebounce = 500 * time.Millisecond

	// History defaults
	DefaultHistoryBackend       = "memory"
	DefaultHistorySQLitePath    = "arbor-history.db"
	DefaultHistoryRetentionDays = 90

	// Telemetry defaults
	DefaultLoggingLevel         = "info"
	DefaultLoggingFormat        = "json"
	DefaultMetricsListenAddress = "127.0.0.1:9090"
	DefaultMetricsPath          = "/metrics"
	DefaultMetricsNamespace     = "arbor"
)

// ApplyDefaults fills unset configuration fields with default values. It is
// called by LoadConfig after parsing and is safe on a zero Config.
func ApplyDefaults(cfg *Config) {
	for i := range cfg.Roots {
		applyRootDefaults(&cfg.Roots[i])
	}

	if cfg.Scheduler.Schedule == "" {
		cfg.Scheduler.Schedule = DefaultSchedule
	}

	if cfg.Watcher.Enabled == nil {
		enabled := true
		cfg.Watcher.Enabled = &enabled
	}
	if cfg.Watcher.DebounceInterval == 0 {
		cfg.Watcher.DebounceInterval = DefaultWatcherDebounce
	}

	if cfg.History.Backend == "" {
		cfg.History.Backend = DefaultHistoryBackend
	}
	if cfg.History.SQLitePath == "" {
		cfg.History.SQLitePath = DefaultHistorySQLitePath
	}
	if cfg.History.RetentionDays == 0 {
		cfg.History.RetentionDays = DefaultHistoryRetentionDays
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
}

// applyRootDefaults fills unset per-root fields.
func applyRootDefaults(rc *RootConfig) {
	if rc.Mode == "" {
		rc.Mode = DefaultMode
	}
	if rc.MaxDeletesPerCall == 0 {
		rc.MaxDeletesPerCall = DefaultMaxDeletesPerCall
	}
	if rc.InitialCleanupIterations == 0 {
		rc.InitialCleanupIterations = DefaultInitialCleanupIterations
	}
	if rc.Watch == nil {
		watch := true
		rc.Watch = &watch
	}
}
