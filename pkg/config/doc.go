// Package config defines the Arbor configuration structure and loading.
//
// Configuration is a YAML file with one section per subsystem: the managed
// roots with their retention policies, the servicing scheduler, the
// filesystem watcher, the deletion history trail, and telemetry.
//
// # Loading sequence
//
//  1. Read and parse the YAML file
//  2. Apply default values for unset fields
//  3. Apply ARBOR_* environment variable overrides
//  4. Validate the final configuration
//
// Environment variables follow the naming convention ARBOR_SECTION_FIELD
// (e.g. ARBOR_TELEMETRY_LOGGING_LEVEL). They always take precedence over
// file-based configuration. Per-root settings are file-only; roots are
// list-valued and do not map cleanly onto flat variable names.
//
// # Example
//
//	roots:
//	  - name: logs
//	    path: /var/log/app
//	    mode: file
//	    limits:
//	      max_files: 10000
//	      max_total_bytes: 1073741824
//	      max_age: 720h
//	scheduler:
//	  schedule: "*/5 * * * *"
//	history:
//	  enabled: true
//	  backend: sqlite
package config
