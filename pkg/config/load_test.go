package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validYAML = `
roots:
  - name: logs
    path: /var/log/app
    create: true
    limits:
      max_files: 1000
      max_age: 720h
  - name: cache
    path: /var/cache/app
    mode: directory
    limits:
      max_total_bytes: 1073741824
scheduler:
  schedule: "0 3 * * *"
history:
  enabled: true
  backend: sqlite
  sqlite_path: /var/lib/arbor/history.db
telemetry:
  logging:
    level: debug
    format: text
  metrics:
    enabled: true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "arbor.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v, want nil", err)
	}

	if len(cfg.Roots) != 2 {
		t.Fatalf("len(Roots) = %d, want 2", len(cfg.Roots))
	}

	logs := cfg.Roots[0]
	if logs.Name != "logs" || logs.Path != "/var/log/app" {
		t.Errorf("roots[0] = %+v, want name=logs path=/var/log/app", logs)
	}
	if !logs.Create {
		t.Error("roots[0].Create = false, want true")
	}
	if logs.Limits.MaxFiles != 1000 {
		t.Errorf("roots[0].Limits.MaxFiles = %d, want 1000", logs.Limits.MaxFiles)
	}
	if logs.Limits.MaxAge != 720*time.Hour {
		t.Errorf("roots[0].Limits.MaxAge = %v, want 720h", logs.Limits.MaxAge)
	}

	if cfg.Roots[1].Mode != "directory" {
		t.Errorf("roots[1].Mode = %q, want directory", cfg.Roots[1].Mode)
	}

	if cfg.Scheduler.Schedule != "0 3 * * *" {
		t.Errorf("Scheduler.Schedule = %q, want 0 3 * * *", cfg.Scheduler.Schedule)
	}
	if cfg.History.Backend != "sqlite" {
		t.Errorf("History.Backend = %q, want sqlite", cfg.History.Backend)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("Telemetry.Logging.Level = %q, want debug", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
roots:
  - name: logs
    path: /var/log/app
    limits:
      max_files: 10
`))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v, want nil", err)
	}

	root := cfg.Roots[0]
	if root.Mode != DefaultMode {
		t.Errorf("Mode = %q, want %q", root.Mode, DefaultMode)
	}
	if root.MaxDeletesPerCall != DefaultMaxDeletesPerCall {
		t.Errorf("MaxDeletesPerCall = %d, want %d", root.MaxDeletesPerCall, DefaultMaxDeletesPerCall)
	}
	if root.Watch == nil || !*root.Watch {
		t.Error("Watch default = false, want true")
	}
	if cfg.Scheduler.Schedule != DefaultSchedule {
		t.Errorf("Scheduler.Schedule = %q, want %q", cfg.Scheduler.Schedule, DefaultSchedule)
	}
	if cfg.Watcher.DebounceInterval != DefaultWatcherDebounce {
		t.Errorf("Watcher.DebounceInterval = %v, want %v", cfg.Watcher.DebounceInterval, DefaultWatcherDebounce)
	}
	if cfg.History.Backend != DefaultHistoryBackend {
		t.Errorf("History.Backend = %q, want %q", cfg.History.Backend, DefaultHistoryBackend)
	}
	if cfg.Telemetry.Metrics.Path != DefaultMetricsPath {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Telemetry.Metrics.Path, DefaultMetricsPath)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadConfig() succeeded for missing file, want error")
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	if _, err := LoadConfig(writeConfig(t, "roots: [not closed")); err == nil {
		t.Error("LoadConfig() succeeded for malformed YAML, want error")
	}
}

func TestLoadConfig_InvalidConfig(t *testing.T) {
	if _, err := LoadConfig(writeConfig(t, "roots: []")); err == nil {
		t.Error("LoadConfig() succeeded without roots, want error")
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	t.Setenv("ARBOR_SCHEDULER_SCHEDULE", "0 4 * * *")
	t.Setenv("ARBOR_HISTORY_ENABLED", "true")
	t.Setenv("ARBOR_HISTORY_BACKEND", "sqlite")
	t.Setenv("ARBOR_TELEMETRY_LOGGING_LEVEL", "error")
	t.Setenv("ARBOR_WATCHER_DEBOUNCE_INTERVAL", "2s")

	cfg, err := LoadConfigWithEnvOverrides(writeConfig(t, `
roots:
  - name: logs
    path: /var/log/app
    limits:
      max_files: 10
scheduler:
  schedule: "0 3 * * *"
`))
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v, want nil", err)
	}

	if cfg.Scheduler.Schedule != "0 4 * * *" {
		t.Errorf("Scheduler.Schedule = %q, want env override 0 4 * * *", cfg.Scheduler.Schedule)
	}
	if !cfg.History.Enabled || cfg.History.Backend != "sqlite" {
		t.Errorf("History = %+v, want enabled sqlite backend", cfg.History)
	}
	if cfg.Telemetry.Logging.Level != "error" {
		t.Errorf("Logging.Level = %q, want error", cfg.Telemetry.Logging.Level)
	}
	if cfg.Watcher.DebounceInterval != 2*time.Second {
		t.Errorf("Watcher.DebounceInterval = %v, want 2s", cfg.Watcher.DebounceInterval)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidOverride(t *testing.T) {
	t.Setenv("ARBOR_TELEMETRY_LOGGING_LEVEL", "loud")

	_, err := LoadConfigWithEnvOverrides(writeConfig(t, `
roots:
  - name: logs
    path: /var/log/app
    limits:
      max_files: 10
`))
	if err == nil {
		t.Error("LoadConfigWithEnvOverrides() succeeded with invalid level override, want error")
	}
}
