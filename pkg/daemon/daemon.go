package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"grove-hq/arbor/pkg/config"
	"grove-hq/arbor/pkg/history"
	"grove-hq/arbor/pkg/retention"
	"grove-hq/arbor/pkg/telemetry/metrics"
)

// Daemon runs the retention service: it manages every configured root,
// drives periodic servicing through the cron scheduler, records deletions
// in the history trail, and exposes Prometheus metrics.
type Daemon struct {
	config    *config.Config
	logger    *slog.Logger
	roots     []*managedRoot
	store     history.Store
	collector *metrics.Collector
	scheduler *retention.Scheduler

	metricsServer *http.Server

	shutdownChan chan struct{}
	shutdownOnce sync.Once
	stopOnce     sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// New creates a daemon from a validated configuration. The logger may be
// nil, in which case slog.Default is used.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if logger == nil {
		logger = slog.Default()
	}

	d := &Daemon{
		config:       cfg,
		logger:       logger.With("component", "daemon"),
		shutdownChan: make(chan struct{}),
	}

	d.collector = metrics.NewCollector(metrics.Config{
		Enabled:   cfg.Telemetry.Metrics.Enabled,
		Namespace: cfg.Telemetry.Metrics.Namespace,
	}, nil)

	if cfg.History.Enabled {
		store, err := openStore(cfg.History)
		if err != nil {
			return nil, fmt.Errorf("opening history store: %w", err)
		}
		d.store = store
	}

	watching := cfg.Watcher.Enabled == nil || *cfg.Watcher.Enabled
	for _, rc := range cfg.Roots {
		if !watching {
			off := false
			rc.Watch = &off
		}
		d.roots = append(d.roots, newManagedRoot(rc, cfg.Watcher.DebounceInterval, logger, d.store, d.collector))
	}

	return d, nil
}

func openStore(hc config.HistoryConfig) (history.Store, error) {
	switch hc.Backend {
	case "sqlite":
		return history.NewSQLiteStore(hc.SQLitePath)
	default:
		return history.NewMemoryStore(), nil
	}
}

// Start brings up every root, the scheduler, and the metrics endpoint, then
// blocks until the context is cancelled, Shutdown is called, or a subsystem
// fails.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.isRunning {
		d.mu.Unlock()
		return fmt.Errorf("daemon is already running")
	}
	d.isRunning = true
	d.mu.Unlock()

	for _, r := range d.roots {
		if err := r.start(ctx); err != nil {
			return err
		}
	}
	d.logger.Info("managing roots", "count", len(d.roots))

	if d.config.Scheduler.Schedule != "" {
		d.scheduler = retention.NewScheduler(d.config.Scheduler.Schedule, d.serviceAll)
		if err := d.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("starting scheduler: %w", err)
		}
		if next := d.scheduler.NextRun(); next != nil {
			d.logger.Info("servicing scheduled",
				"schedule", d.config.Scheduler.Schedule,
				"next_run", next.Format(time.RFC3339),
			)
		}
	}

	errChan := make(chan error, 1)
	if d.config.Telemetry.Metrics.Enabled {
		d.startMetricsServer(errChan)
	}

	// Publish initial gauges without waiting for the first cron tick.
	d.serviceAll()

	select {
	case <-ctx.Done():
		d.logger.Info("context cancelled, initiating shutdown")
		return d.Shutdown(context.Background())
	case err := <-errChan:
		d.Shutdown(context.Background())
		return err
	case <-d.shutdownChan:
		d.logger.Info("shutdown requested")
		return d.Shutdown(context.Background())
	}
}

// serviceAll is the scheduler job. It requests a service pass on every root
// and expires old history records.
func (d *Daemon) serviceAll() {
	for _, r := range d.roots {
		r.service()
	}
	if d.store != nil && d.config.History.RetentionDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -d.config.History.RetentionDays)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		removed, err := d.store.Cleanup(ctx, cutoff)
		if err != nil {
			d.logger.Warn("history cleanup failed", "error", err)
		} else if removed > 0 {
			d.logger.Debug("history cleanup complete", "removed", removed)
		}
	}
}

func (d *Daemon) startMetricsServer(errChan chan<- error) {
	mux := http.NewServeMux()
	mux.Handle(d.config.Telemetry.Metrics.Path, d.collector.Handler())

	d.metricsServer = &http.Server{
		Addr:         d.config.Telemetry.Metrics.ListenAddress,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		d.logger.Info("starting metrics server",
			"address", d.config.Telemetry.Metrics.ListenAddress,
			"path", d.config.Telemetry.Metrics.Path,
		)
		if err := d.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("metrics server error: %w", err)
		}
	}()
}

// Shutdown stops the scheduler, the watchers, the engine owners, the
// metrics server, and the history store, in that order.
func (d *Daemon) Shutdown(ctx context.Context) error {
	var shutdownErr error

	d.shutdownOnce.Do(func() {
		d.mu.Lock()
		if !d.isRunning {
			d.mu.Unlock()
			return
		}
		d.mu.Unlock()

		d.logger.Info("initiating graceful shutdown")

		if d.scheduler != nil {
			d.scheduler.Stop()
		}

		for _, r := range d.roots {
			r.stop()
		}

		if d.metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			if err := d.metricsServer.Shutdown(shutdownCtx); err != nil {
				d.logger.Error("error during metrics server shutdown", "error", err)
				shutdownErr = fmt.Errorf("metrics server shutdown error: %w", err)
			}
		}

		if d.store != nil {
			if err := d.store.Close(); err != nil {
				d.logger.Error("error closing history store", "error", err)
				if shutdownErr == nil {
					shutdownErr = fmt.Errorf("history store close error: %w", err)
				}
			}
		}

		d.mu.Lock()
		d.isRunning = false
		d.mu.Unlock()

		d.logger.Info("daemon stopped")
	})

	return shutdownErr
}

// Stop requests an asynchronous shutdown of a running Start call.
func (d *Daemon) Stop() {
	d.stopOnce.Do(func() {
		close(d.shutdownChan)
	})
}

// IsRunning returns true if the daemon is running.
func (d *Daemon) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.isRunning
}

// Status reports a summary of every managed root.
func (d *Daemon) Status() []RootStatus {
	statuses := make([]RootStatus, 0, len(d.roots))
	for _, r := range d.roots {
		statuses = append(statuses, r.status())
	}
	return statuses
}

// History returns the deletion trail store, or nil when disabled.
func (d *Daemon) History() history.Store {
	return d.store
}
