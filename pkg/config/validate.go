package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "roots[0].path").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Bounds for a nonzero item-count limit.
const (
	MinItemLimit = 2
	MaxItemLimit = 1_000_000
)

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	if len(cfg.Roots) == 0 {
		errs = append(errs, FieldError{
			Field:   "roots",
			Message: "at least one managed root is required",
		})
	}

	seen := make(map[string]bool)
	for i := range cfg.Roots {
		errs = append(errs, validateRoot(i, &cfg.Roots[i], seen)...)
	}

	errs = append(errs, validateScheduler(&cfg.Scheduler)...)
	errs = append(errs, validateHistory(&cfg.History)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateRoot validates one managed root.
func validateRoot(i int, rc *RootConfig, seen map[string]bool) []FieldError {
	var errs []FieldError
	prefix := fmt.Sprintf("roots[%d]", i)

	if rc.Name == "" {
		errs = append(errs, FieldError{
			Field:   prefix + ".name",
			Message: "root name is required",
		})
	} else if seen[rc.Name] {
		errs = append(errs, FieldError{
			Field:   prefix + ".name",
			Message: fmt.Sprintf("duplicate root name %q", rc.Name),
		})
	} else {
		seen[rc.Name] = true
	}

	if rc.Path == "" {
		errs = append(errs, FieldError{
			Field:   prefix + ".path",
			Message: "root path is required",
		})
	}

	if rc.Mode != "file" && rc.Mode != "directory" {
		errs = append(errs, FieldError{
			Field:   prefix + ".mode",
			Message: fmt.Sprintf("mode must be \"file\" or \"directory\", got %q", rc.Mode),
		})
	}

	if rc.MaxDeletesPerCall < 1 {
		errs = append(errs, FieldError{
			Field:   prefix + ".max_deletes_per_call",
			Message: "must be at least 1",
		})
	}
	if rc.InitialCleanupIterations < 0 {
		errs = append(errs, FieldError{
			Field:   prefix + ".initial_cleanup_iterations",
			Message: "must not be negative",
		})
	}

	errs = append(errs, validateRootLimits(prefix, &rc.Limits)...)

	return errs
}

// validateRootLimits validates the retention limits of one root.
func validateRootLimits(prefix string, lc *LimitsConfig) []FieldError {
	var errs []FieldError

	if lc.MaxItems != 0 && (lc.MaxItems < MinItemLimit || lc.MaxItems > MaxItemLimit) {
		errs = append(errs, FieldError{
			Field:   prefix + ".limits.max_items",
			Message: fmt.Sprintf("nonzero value must lie in [%d, %d]", MinItemLimit, MaxItemLimit),
		})
	}
	if lc.MaxFiles < 0 {
		errs = append(errs, FieldError{
			Field:   prefix + ".limits.max_files",
			Message: "must not be negative",
		})
	}
	if lc.MaxTotalBytes < 0 {
		errs = append(errs, FieldError{
			Field:   prefix + ".limits.max_total_bytes",
			Message: "must not be negative",
		})
	}
	if lc.MaxAge < 0 {
		errs = append(errs, FieldError{
			Field:   prefix + ".limits.max_age",
			Message: "must not be negative",
		})
	}
	if lc.MaxItems == 0 && lc.MaxFiles == 0 && lc.MaxTotalBytes == 0 && lc.MaxAge == 0 {
		errs = append(errs, FieldError{
			Field:   prefix + ".limits",
			Message: "at least one retention limit must be set",
		})
	}

	return errs
}

// validateScheduler validates scheduler configuration.
func validateScheduler(sc *SchedulerConfig) []FieldError {
	var errs []FieldError

	if sc.Schedule != "" {
		if _, err := cron.ParseStandard(sc.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "scheduler.schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	return errs
}

// validateHistory validates history trail configuration.
func validateHistory(hc *HistoryConfig) []FieldError {
	var errs []FieldError

	if hc.Backend != "memory" && hc.Backend != "sqlite" {
		errs = append(errs, FieldError{
			Field:   "history.backend",
			Message: fmt.Sprintf("backend must be \"memory\" or \"sqlite\", got %q", hc.Backend),
		})
	}
	if hc.Backend == "sqlite" && hc.SQLitePath == "" {
		errs = append(errs, FieldError{
			Field:   "history.sqlite_path",
			Message: "sqlite path is required for the sqlite backend",
		})
	}
	if hc.RetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "history.retention_days",
			Message: "must not be negative",
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(tc *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch tc.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("level must be one of debug, info, warn, error, got %q", tc.Logging.Level),
		})
	}

	switch tc.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("format must be \"json\" or \"text\", got %q", tc.Logging.Format),
		})
	}

	if tc.Metrics.Enabled && tc.Metrics.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.listen_address",
			Message: "listen address is required when metrics are enabled",
		})
	}
	if tc.Metrics.Path != "" && !strings.HasPrefix(tc.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "path must start with /",
		})
	}

	return errs
}
