// Package logging configures the process-wide structured logger.
//
// Logging is built on log/slog. New parses the configured level and format,
// builds the matching handler, and returns a *slog.Logger; Setup
// additionally installs it as slog.Default so component loggers created via
// slog.Default().With(...) inherit the configuration.
package logging
