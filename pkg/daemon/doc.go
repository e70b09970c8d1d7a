// Package daemon wires the retention subsystems into a long-running service.
//
// A Daemon owns one managed root per configured directory tree. Each managed
// root pairs a retention engine with a dedicated goroutine that executes all
// engine work serially, so the cron scheduler and the filesystem watcher can
// both request servicing without synchronizing on the engine itself.
//
// The daemon also hosts the shared subsystems: the deletion history store,
// the Prometheus collector with its HTTP endpoint, and the cron scheduler
// that drives periodic servicing across every root.
package daemon
