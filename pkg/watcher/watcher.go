package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RootWatcher watches a managed directory tree for changes. It implements
// debouncing so bursts of change traffic collapse into one settle callback.
type RootWatcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	config   *Config
	debounce *Debouncer

	// State
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// Config contains configuration for the root watcher.
type Config struct {
	// Root is the directory tree to watch.
	Root string

	// DebounceInterval is the quiet period before the settle callback
	// fires after change traffic (default: 500ms)
	DebounceInterval time.Duration

	// SkipHidden controls whether hidden files and directories are ignored
	SkipHidden bool
}

// DefaultConfig returns the default watcher configuration.
func DefaultConfig() *Config {
	return &Config{
		DebounceInterval: 500 * time.Millisecond,
		SkipHidden:       true,
	}
}

// Callbacks are the owner's hooks. OnAdded fires once per created path;
// OnSettle fires after change traffic has been quiet for the debounce
// interval. Both are invoked from the watcher goroutine.
type Callbacks struct {
	OnAdded  func(path string)
	OnSettle func()
}

// New creates a watcher for the configured root.
func New(config *Config, logger *slog.Logger) (*RootWatcher, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.DebounceInterval == 0 {
		config.DebounceInterval = 500 * time.Millisecond
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "watcher")

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &RootWatcher{
		watcher:  w,
		logger:   logger,
		config:   config,
		debounce: NewDebouncer(config.DebounceInterval),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch starts watching for changes and dispatches callbacks.
// This is a blocking operation that runs until the context is cancelled or
// Stop is called.
func (rw *RootWatcher) Watch(ctx context.Context, cb Callbacks) error {
	rw.mu.Lock()
	if rw.running {
		rw.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	rw.running = true
	rw.mu.Unlock()

	defer func() {
		rw.mu.Lock()
		rw.running = false
		rw.mu.Unlock()
		close(rw.doneCh)
	}()

	if err := rw.addDirectory(rw.config.Root); err != nil {
		return fmt.Errorf("failed to watch root: %w", err)
	}

	rw.logger.Info("root watcher started",
		"root", rw.config.Root,
		"debounce_ms", rw.config.DebounceInterval.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			rw.logger.Info("root watcher stopped (context cancelled)")
			return nil

		case <-rw.stopCh:
			rw.logger.Info("root watcher stopped")
			return nil

		case event, ok := <-rw.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			if !rw.shouldProcessEvent(event) {
				continue
			}

			rw.logger.Debug("filesystem event",
				"path", event.Name,
				"op", event.Op.String(),
			)

			if event.Op&fsnotify.Create == fsnotify.Create {
				rw.handleCreate(event.Name, cb)
			}

			if cb.OnSettle != nil {
				rw.debounce.Trigger(cb.OnSettle)
			}

		case err, ok := <-rw.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}

			rw.logger.Error("root watcher error", "error", err)
			// Continue watching despite errors
		}
	}
}

// handleCreate reports a created path and extends the watch to a created
// directory, including anything that appeared inside it before the watch
// was in place.
func (rw *RootWatcher) handleCreate(path string, cb Callbacks) {
	if cb.OnAdded != nil {
		cb.OnAdded(path)
	}

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := rw.addDirectory(path); err != nil {
		rw.logger.Warn("failed to extend watch", "path", path, "error", err)
	}
}

// Stop stops the root watcher.
func (rw *RootWatcher) Stop() error {
	rw.mu.Lock()
	if !rw.running {
		rw.mu.Unlock()
		return nil
	}
	rw.mu.Unlock()

	close(rw.stopCh)
	<-rw.doneCh

	rw.debounce.Stop()

	if err := rw.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	return nil
}

// addDirectory adds a directory and all subdirectories to the watcher.
func (rw *RootWatcher) addDirectory(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// A path vanishing mid-walk is normal under churn.
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}

		if rw.config.SkipHidden && strings.HasPrefix(filepath.Base(path), ".") && path != dir {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			if err := rw.watcher.Add(path); err != nil {
				return fmt.Errorf("failed to watch directory %q: %w", path, err)
			}
			rw.logger.Debug("watching directory", "path", path)
		}

		return nil
	})
}

// shouldProcessEvent determines if an event is relevant change traffic.
func (rw *RootWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}

	if rw.config.SkipHidden && strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}

	return true
}

// Debouncer collects rapid events and triggers the callback only after a
// quiet period.
type Debouncer struct {
	interval time.Duration
	timer    *time.Timer
	mu       sync.Mutex
	callback func()
	stopCh   chan struct{}
}

// NewDebouncer creates a new debouncer.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Trigger triggers the debouncer with a new event.
// The callback will be called after the debounce interval if no new events occur.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.callback = callback

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.interval, func() {
		select {
		case <-d.stopCh:
			return
		default:
			d.mu.Lock()
			cb := d.callback
			d.mu.Unlock()

			if cb != nil {
				cb()
			}
		}
	})
}

// Stop stops the debouncer and cancels any pending callbacks.
func (d *Debouncer) Stop() {
	close(d.stopCh)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}
