package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"grove-hq/arbor/pkg/config"
	"grove-hq/arbor/pkg/fstree"
	"grove-hq/arbor/pkg/history"
	"grove-hq/arbor/pkg/retention"
	"grove-hq/arbor/pkg/telemetry/metrics"
	"grove-hq/arbor/pkg/watcher"
)

// EngineSettings converts a validated root configuration into engine settings.
func EngineSettings(rc config.RootConfig) retention.Settings {
	return retention.Settings{
		RootDir:                  rc.Path,
		CreateRootDir:            rc.Create,
		Mode:                     retention.Mode(rc.Mode),
		MaxItems:                 rc.Limits.MaxItems,
		MaxFiles:                 rc.Limits.MaxFiles,
		MaxTotalBytes:            rc.Limits.MaxTotalBytes,
		MaxAge:                   rc.Limits.MaxAge,
		MaxDeletesPerCall:        rc.MaxDeletesPerCall,
		InitialCleanupIterations: rc.InitialCleanupIterations,
	}
}

// managedRoot is one configured directory tree under daemon control. All
// engine access goes through the calls channel; the run goroutine is the
// engine's single owner.
type managedRoot struct {
	name      string
	cfg       config.RootConfig
	debounce  time.Duration
	engine    *retention.Engine
	watcher   *watcher.RootWatcher
	collector *metrics.Collector
	logger    *slog.Logger

	calls  chan func()
	stopCh chan struct{}
	doneCh chan struct{}

	watchWG sync.WaitGroup
}

func newManagedRoot(rc config.RootConfig, debounce time.Duration, logger *slog.Logger, store history.Store, collector *metrics.Collector) *managedRoot {
	r := &managedRoot{
		name:      rc.Name,
		cfg:       rc,
		debounce:  debounce,
		engine:    retention.NewEngine(rc.Name, logger),
		collector: collector,
		logger:    logger.With("component", "daemon", "root", rc.Name),
		calls:     make(chan func(), 64),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}

	r.engine.OnDeleteFailed = func(entry *fstree.Entry, err error) {
		collector.RecordDeletionFailure(rc.Name)
	}
	r.engine.OnDeleted = func(entry *fstree.Entry) {
		collector.RecordDeletion(rc.Name, entryKind(entry), entry.Length())
		if store == nil {
			return
		}
		rec := history.NewRecord(rc.Name, entry.Path(), entryKind(entry), entry.Length(), entry.ModTime())
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Append(ctx, rec); err != nil {
			r.logger.Warn("failed to record deletion", "path", entry.Path(), "error", err)
		}
	}

	return r
}

func entryKind(entry *fstree.Entry) string {
	if entry.IsDirectory() {
		return "directory"
	}
	return "file"
}

// start sets up the engine and launches the owner goroutine. Setup runs on
// the calling goroutine; engine ownership transfers to run afterwards. A
// faulted root stays under management so its fault remains visible, but it
// gets no watcher.
func (r *managedRoot) start(ctx context.Context) error {
	usable := r.engine.Setup(EngineSettings(r.cfg))
	go r.run()
	if !usable {
		r.logger.Error("root unusable", "fault", r.engine.Fault())
		return nil
	}

	if r.cfg.Watch != nil && *r.cfg.Watch {
		if err := r.startWatcher(ctx); err != nil {
			return fmt.Errorf("root %q: %w", r.name, err)
		}
	}
	return nil
}

// run executes submitted calls serially until stop.
func (r *managedRoot) run() {
	defer close(r.doneCh)
	for {
		select {
		case fn := <-r.calls:
			fn()
		case <-r.stopCh:
			// Drain work already queued before the stop was requested.
			for {
				select {
				case fn := <-r.calls:
					fn()
				default:
					return
				}
			}
		}
	}
}

// submit schedules fn on the engine owner goroutine. Returns false when the
// root is stopping or the queue is full.
func (r *managedRoot) submit(fn func()) bool {
	select {
	case <-r.stopCh:
		return false
	default:
	}
	select {
	case r.calls <- fn:
		return true
	default:
		r.logger.Warn("engine call queue full, dropping request")
		return false
	}
}

// service refreshes the tree, prunes when limits are exceeded, and publishes
// the resulting tree gauges.
func (r *managedRoot) service() {
	r.submit(func() {
		started := time.Now()
		r.engine.Service(true)
		r.collector.RecordPrunePass(r.name, time.Since(started))
		r.collector.UpdateBlocked(r.name, r.engine.IsPruningBlocked())
		if root := r.engine.Root(); root != nil {
			r.collector.UpdateTreeTotals(r.name, root.TotalItems(), root.TotalFiles(), root.TotalSize())
			if oldest := root.OldestAt(); !oldest.IsZero() {
				r.collector.UpdateOldestAge(r.name, time.Since(oldest))
			}
		}
	})
}

func (r *managedRoot) startWatcher(ctx context.Context) error {
	w, err := watcher.New(&watcher.Config{
		Root:             r.cfg.Path,
		DebounceInterval: r.debounce,
		SkipHidden:       true,
	}, r.logger)
	if err != nil {
		return err
	}
	r.watcher = w

	cb := watcher.Callbacks{
		OnAdded: func(path string) {
			r.submit(func() {
				r.engine.NotePathAdded(path)
			})
		},
		OnSettle: func() {
			r.submit(func() {
				if root := r.engine.Root(); root != nil {
					root.MarkChanged()
				}
				r.engine.Service(true)
			})
		},
	}

	r.watchWG.Add(1)
	go func() {
		defer r.watchWG.Done()
		if err := w.Watch(ctx, cb); err != nil {
			r.logger.Error("watcher stopped", "error", err)
		}
	}()
	return nil
}

// stop shuts down the watcher and the engine owner goroutine.
func (r *managedRoot) stop() {
	if r.watcher != nil {
		if err := r.watcher.Stop(); err != nil {
			r.logger.Warn("error stopping watcher", "error", err)
		}
		r.watchWG.Wait()
	}
	close(r.stopCh)
	<-r.doneCh
}

// RootStatus is a point-in-time summary of one managed root.
type RootStatus struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	Usable     bool      `json:"usable"`
	Fault      string    `json:"fault,omitempty"`
	Items      int64     `json:"items"`
	Files      int64     `json:"files"`
	TotalBytes int64     `json:"total_bytes"`
	OldestAt   time.Time `json:"oldest_at"`
	NeedsPrune bool      `json:"needs_prune"`
}

// status captures a summary on the owner goroutine. Falls back to a minimal
// report when the root is already stopping.
func (r *managedRoot) status() RootStatus {
	result := make(chan RootStatus, 1)
	ok := r.submit(func() {
		result <- Inspect(r.name, r.cfg.Path, r.engine)
	})
	if !ok {
		return RootStatus{Name: r.name, Path: r.cfg.Path}
	}
	return <-result
}

// Inspect summarizes an engine's tree. The caller must own the engine.
func Inspect(name, path string, e *retention.Engine) RootStatus {
	st := RootStatus{
		Name:       name,
		Path:       path,
		Usable:     e.IsDirectoryUsable(),
		Fault:      e.Fault(),
		NeedsPrune: e.IsPruningNeeded(),
	}
	if root := e.Root(); root != nil {
		st.Items = root.TotalItems()
		st.Files = root.TotalFiles()
		st.TotalBytes = root.TotalSize()
		st.OldestAt = root.OldestAt()
	}
	return st
}
