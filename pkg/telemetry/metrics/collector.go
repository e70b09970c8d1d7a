package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config contains configuration for the metrics collector.
type Config struct {
	// Enabled toggles metric recording. A disabled collector still
	// registers its metrics so the endpoint shape is stable.
	Enabled bool

	// Namespace is the metric name prefix. Default: "arbor"
	Namespace string

	// PruneDurationBuckets are the histogram buckets for prune pass
	// latency in seconds.
	PruneDurationBuckets []float64
}

// Collector owns the Prometheus registry and all Arbor metric groups.
type Collector struct {
	config   Config
	registry *prometheus.Registry

	treeMetrics  *TreeMetrics
	pruneMetrics *PruneMetrics
}

// NewCollector creates a metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a private registry is
// created.
func NewCollector(cfg Config, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = "arbor"
	}
	if len(cfg.PruneDurationBuckets) == 0 {
		// Prune passes are filesystem bound, sub-millisecond to seconds.
		cfg.PruneDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0}
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}
	c.treeMetrics = NewTreeMetrics(cfg, registry)
	c.pruneMetrics = NewPruneMetrics(cfg, registry)

	return c
}

// UpdateTreeTotals updates the tree state gauges for a managed root.
func (c *Collector) UpdateTreeTotals(root string, items, files, bytes int64) {
	if !c.config.Enabled {
		return
	}
	c.treeMetrics.UpdateTotals(root, items, files, bytes)
}

// UpdateOldestAge updates the age gauge of a root's oldest tracked entry.
func (c *Collector) UpdateOldestAge(root string, age time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.treeMetrics.UpdateOldestAge(root, age)
}

// RecordDeletion records one successful physical deletion.
func (c *Collector) RecordDeletion(root, kind string, bytes int64) {
	if !c.config.Enabled {
		return
	}
	c.pruneMetrics.RecordDeletion(root, kind, bytes)
}

// RecordDeletionFailure records a deletion that failed.
func (c *Collector) RecordDeletionFailure(root string) {
	if !c.config.Enabled {
		return
	}
	c.pruneMetrics.RecordFailure(root)
}

// RecordPrunePass records the duration of one prune pass.
func (c *Collector) RecordPrunePass(root string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.pruneMetrics.RecordPass(root, duration)
}

// UpdateBlocked updates the cool-down gauge for a root (1=blocked).
func (c *Collector) UpdateBlocked(root string, blocked bool) {
	if !c.config.Enabled {
		return
	}
	c.pruneMetrics.UpdateBlocked(root, blocked)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// TreeMetrics describes the current state of each managed root's mirror.
//
// Metrics:
//   - arbor_tree_items: Total tracked items, root included
//   - arbor_tree_files: Total tracked files
//   - arbor_tree_bytes: Cumulative byte size of the tree
//   - arbor_tree_oldest_age_seconds: Age of the oldest tracked entry
type TreeMetrics struct {
	items     *prometheus.GaugeVec
	files     *prometheus.GaugeVec
	bytes     *prometheus.GaugeVec
	oldestAge *prometheus.GaugeVec
}

// NewTreeMetrics creates and registers tree metrics with the provided registry.
func NewTreeMetrics(cfg Config, registry *prometheus.Registry) *TreeMetrics {
	tm := &TreeMetrics{
		items: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "tree_items",
				Help:      "Total tracked items in the managed tree, root included",
			},
			[]string{"root"},
		),

		files: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "tree_files",
				Help:      "Total tracked files in the managed tree",
			},
			[]string{"root"},
		),

		bytes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "tree_bytes",
				Help:      "Cumulative byte size of the managed tree",
			},
			[]string{"root"},
		),

		oldestAge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "tree_oldest_age_seconds",
				Help:      "Age of the oldest tracked entry in seconds",
			},
			[]string{"root"},
		),
	}

	registry.MustRegister(
		tm.items,
		tm.files,
		tm.bytes,
		tm.oldestAge,
	)

	return tm
}

// UpdateTotals updates the item, file and byte gauges for a root.
func (tm *TreeMetrics) UpdateTotals(root string, items, files, bytes int64) {
	tm.items.WithLabelValues(root).Set(float64(items))
	tm.files.WithLabelValues(root).Set(float64(files))
	tm.bytes.WithLabelValues(root).Set(float64(bytes))
}

// UpdateOldestAge updates the oldest-entry age gauge for a root.
func (tm *TreeMetrics) UpdateOldestAge(root string, age time.Duration) {
	tm.oldestAge.WithLabelValues(root).Set(age.Seconds())
}

// PruneMetrics counts pruning activity.
//
// Metrics:
//   - arbor_prune_deletions_total: Deletions by root and kind
//   - arbor_prune_deleted_bytes_total: Bytes reclaimed by deletions
//   - arbor_prune_failures_total: Failed deletion attempts
//   - arbor_prune_pass_duration_seconds: Prune pass latency
//   - arbor_prune_blocked: Whether pruning is in cool-down (1=blocked)
type PruneMetrics struct {
	deletions    *prometheus.CounterVec
	deletedBytes *prometheus.CounterVec
	failures     *prometheus.CounterVec
	passDuration *prometheus.HistogramVec
	blocked      *prometheus.GaugeVec
}

// NewPruneMetrics creates and registers prune metrics with the provided registry.
func NewPruneMetrics(cfg Config, registry *prometheus.Registry) *PruneMetrics {
	pm := &PruneMetrics{
		deletions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "prune_deletions_total",
				Help:      "Total number of pruned entries by kind",
			},
			[]string{"root", "kind"},
		),

		deletedBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "prune_deleted_bytes_total",
				Help:      "Total bytes reclaimed by pruning",
			},
			[]string{"root"},
		),

		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "prune_failures_total",
				Help:      "Total number of failed deletion attempts",
			},
			[]string{"root"},
		),

		passDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "prune_pass_duration_seconds",
				Help:      "Prune pass latency in seconds",
				Buckets:   cfg.PruneDurationBuckets,
			},
			[]string{"root"},
		),

		blocked: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "prune_blocked",
				Help:      "Whether pruning is in post-failure cool-down (1=blocked)",
			},
			[]string{"root"},
		),
	}

	registry.MustRegister(
		pm.deletions,
		pm.deletedBytes,
		pm.failures,
		pm.passDuration,
		pm.blocked,
	)

	return pm
}

// RecordDeletion records one successful deletion.
func (pm *PruneMetrics) RecordDeletion(root, kind string, bytes int64) {
	pm.deletions.WithLabelValues(root, kind).Inc()
	pm.deletedBytes.WithLabelValues(root).Add(float64(bytes))
}

// RecordFailure records a failed deletion attempt.
func (pm *PruneMetrics) RecordFailure(root string) {
	pm.failures.WithLabelValues(root).Inc()
}

// RecordPass records the duration of one prune pass.
func (pm *PruneMetrics) RecordPass(root string, duration time.Duration) {
	pm.passDuration.WithLabelValues(root).Observe(duration.Seconds())
}

// UpdateBlocked updates the cool-down gauge for a root.
func (pm *PruneMetrics) UpdateBlocked(root string, blocked bool) {
	value := 0.0
	if blocked {
		value = 1.0
	}
	pm.blocked.WithLabelValues(root).Set(value)
}
