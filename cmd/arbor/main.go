// Arbor is a directory retention daemon that keeps managed directory trees
// within configured bounds.
//
// It mirrors each managed tree in memory, ages entries oldest-first, and
// incrementally deletes the oldest files or directory cohorts whenever an
// item count, file count, total size, or age limit is exceeded, providing:
//   - Per-file or per-directory pruning granularity
//   - Cron-scheduled servicing and filesystem change watching
//   - A deletion audit trail in memory or SQLite
//   - Prometheus metrics for tree totals and prune activity
//
// Usage:
//
//	# Start the daemon with default configuration
//	arbor run
//
//	# Start with a custom configuration file
//	arbor run --config /path/to/config.yaml
//
//	# Run a single prune pass and exit
//	arbor prune
//
//	# Report tree totals for every configured root
//	arbor status
//
//	# Query the deletion audit trail
//	arbor history --limit 50
//
//	# Validate a configuration file
//	arbor validate
//
//	# Show version information
//	arbor version
package main

func main() {
	Execute()
}
