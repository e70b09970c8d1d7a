package retention

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"grove-hq/arbor/pkg/fstree"
)

// Mode selects the pruning granularity.
type Mode string

const (
	// ModePerFile removes one oldest file per incremental step.
	ModePerFile Mode = "file"
	// ModePerDirectory removes a cohort of oldest files from one directory
	// per incremental step, bounded by the per-call deletion cap.
	ModePerDirectory Mode = "directory"
)

const (
	// minItemLimit and maxItemLimit bound a nonzero item-count limit.
	minItemLimit = 2
	maxItemLimit = 1_000_000

	// pruneRetryDelay is how long pruning stays blocked after a failed or
	// empty deletion batch.
	pruneRetryDelay = 10 * time.Second
)

// Settings is the plain policy structure consumed by an Engine. It carries
// no file or environment resolution; pkg/config produces one per managed
// root.
type Settings struct {
	// RootDir is the directory subtree to manage.
	RootDir string

	// CreateRootDir creates RootDir during Setup when it is absent.
	CreateRootDir bool

	// Mode is the pruning granularity. Empty defaults to ModePerFile.
	Mode Mode

	// MaxItems limits the total node count of the tree, root included.
	// 0 disables the limit; a nonzero value must lie in [2, 1_000_000].
	MaxItems int64

	// MaxFiles limits the total file count. 0 disables.
	MaxFiles int64

	// MaxTotalBytes limits the cumulative byte size. 0 disables.
	MaxTotalBytes int64

	// MaxAge limits the age of the oldest tracked item. 0 disables.
	MaxAge time.Duration

	// MaxDeletesPerCall caps how many entries one PerformIncrementalPrune
	// call may delete. 0 defaults to 1.
	MaxDeletesPerCall int

	// InitialCleanupIterations caps the bounded cleanup passes run at the
	// end of a successful Setup. 0 skips initial cleanup.
	InitialCleanupIterations int
}

// Engine maintains the in-memory mirror of one managed directory and
// applies the pruning policy to it. All methods must be called from a
// single owner; the engine performs no internal locking.
type Engine struct {
	name     string
	settings Settings
	root     *fstree.Node

	fault  string
	usable bool

	// blockedUntil suppresses pruning after a failed batch.
	blockedUntil time.Time

	logger *slog.Logger
	issue  fstree.Sink
	trace  fstree.Sink

	// OnDeleted, when set, is invoked after every successful physical
	// deletion. Used to feed the audit journal and metrics.
	OnDeleted func(e *fstree.Entry)

	// OnDeleteFailed, when set, is invoked for every deletion that failed
	// with anything other than the path already being gone.
	OnDeleteFailed func(e *fstree.Entry, err error)

	// removeFn and now are indirections over os.Remove and time.Now.
	removeFn func(path string) error
	now      func() time.Time
}

// NewEngine creates an engine identified by name. The logger may be nil, in
// which case slog.Default is used.
func NewEngine(name string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "retention.engine", "root_name", name)
	return &Engine{
		name:     name,
		logger:   logger,
		issue:    fstree.NewIssueSink(logger, "retention.tree"),
		trace:    fstree.NewTraceSink(logger, "retention.tree"),
		removeFn: os.Remove,
		now:      time.Now,
	}
}

// Name returns the engine's identifier.
func (e *Engine) Name() string { return e.name }

// Fault returns the latched fault string from the last Setup, empty when
// the engine is healthy.
func (e *Engine) Fault() string { return e.fault }

// IsDirectoryUsable reports whether the last Setup left the managed
// directory in a usable state.
func (e *Engine) IsDirectoryUsable() bool { return e.usable }

// Root exposes the tree root for read-only inspection (status reporting).
func (e *Engine) Root() *fstree.Node { return e.root }

// setFault latches the first fault of a setup attempt. Later faults during
// the same attempt are logged but do not overwrite it.
func (e *Engine) setFault(code string) {
	if e.fault == "" {
		e.fault = code
		return
	}
	e.logger.Warn("additional setup fault suppressed", "fault", code, "latched", e.fault)
}

// Setup clears prior state, validates the root directory and policy limits,
// builds the tree, and runs bounded initial cleanup. It returns whether the
// directory ended up usable. Failures are latched via Fault, never raised.
func (e *Engine) Setup(s Settings) bool {
	e.fault = ""
	e.usable = false
	e.root = nil
	e.blockedUntil = time.Time{}
	e.settings = s
	if e.settings.Mode == "" {
		e.settings.Mode = ModePerFile
	}
	if e.settings.MaxDeletesPerCall < 1 {
		e.settings.MaxDeletesPerCall = 1
	}

	rootDir, err := filepath.Abs(s.RootDir)
	if err != nil || s.RootDir == "" {
		e.setFault(fmt.Sprintf("invalid root directory %q", s.RootDir))
		return false
	}
	e.settings.RootDir = rootDir

	info, err := os.Stat(rootDir)
	switch {
	case err == nil && !info.IsDir():
		e.setFault(fmt.Sprintf("root path %s exists but is not a directory", rootDir))
	case os.IsNotExist(err) && s.CreateRootDir:
		if mkErr := os.MkdirAll(rootDir, 0755); mkErr != nil {
			e.setFault(fmt.Sprintf("creating root directory %s failed: %v", rootDir, mkErr))
		}
	case os.IsNotExist(err):
		e.setFault(fmt.Sprintf("root directory %s does not exist", rootDir))
	case err != nil:
		e.setFault(fmt.Sprintf("stat of root directory %s failed: %v", rootDir, err))
	}
	if e.fault != "" {
		return false
	}

	e.root = fstree.NewTree(rootDir)
	e.root.BuildTree(true, true, e.issue)

	e.validateLimits()
	if e.fault != "" {
		return false
	}
	e.usable = true

	for i := 0; i < e.settings.InitialCleanupIterations && e.IsPruningNeeded(); i++ {
		if !e.PerformIncrementalPrune() {
			break
		}
	}

	e.logger.Info("retention engine ready",
		"root", rootDir,
		"mode", string(e.settings.Mode),
		"items", e.root.TotalItems(),
		"files", e.root.TotalFiles(),
		"bytes", e.root.TotalSize(),
	)
	return true
}

// validateLimits checks the numeric policy limits: a nonzero item limit must
// lie within the sanity range, everything else must be non-negative.
func (e *Engine) validateLimits() {
	s := e.settings
	if s.MaxItems != 0 && (s.MaxItems < minItemLimit || s.MaxItems > maxItemLimit) {
		e.setFault(fmt.Sprintf("item limit %d outside [%d, %d]", s.MaxItems, minItemLimit, maxItemLimit))
	}
	if s.MaxFiles < 0 {
		e.setFault(fmt.Sprintf("file limit %d is negative", s.MaxFiles))
	}
	if s.MaxTotalBytes < 0 {
		e.setFault(fmt.Sprintf("size limit %d is negative", s.MaxTotalBytes))
	}
	if s.MaxAge < 0 {
		e.setFault(fmt.Sprintf("age limit %v is negative", s.MaxAge))
	}
}

// IsPruningBlocked reports whether pruning is in the post-failure cool-down.
func (e *Engine) IsPruningBlocked() bool {
	return e.now().Before(e.blockedUntil)
}

// IsPruningNeeded reports whether any configured limit is currently
// exceeded. It is always false while pruning is blocked or while the tree
// has nothing below the root.
func (e *Engine) IsPruningNeeded() bool {
	if e.root == nil || !e.usable {
		return false
	}
	if e.IsPruningBlocked() {
		return false
	}
	if e.root.ChildCount() == 0 {
		return false
	}
	s := e.settings
	if s.MaxItems > 0 && e.root.TotalItems() > s.MaxItems {
		return true
	}
	if s.MaxFiles > 0 && e.root.TotalFiles() > s.MaxFiles {
		return true
	}
	if s.MaxTotalBytes > 0 && e.root.TotalSize() > s.MaxTotalBytes {
		return true
	}
	if s.MaxAge > 0 && !e.root.OldestAt().IsZero() && e.now().Sub(e.root.OldestAt()) > s.MaxAge {
		return true
	}
	return false
}

// ExtractNextBatch detaches the next prunable cohort from the tree. Batch
// size follows the configured granularity: one file in ModePerFile, up to
// the per-call cap in ModePerDirectory.
func (e *Engine) ExtractNextBatch() []*fstree.Entry {
	if e.root == nil {
		return nil
	}
	maxFiles := 1
	if e.settings.Mode == ModePerDirectory {
		maxFiles = e.settings.MaxDeletesPerCall
	}
	return e.root.ExtractOldest(maxFiles, e.issue, e.trace)
}

// DeletePrunedItems physically deletes the extracted entries in order and
// returns the count of successful deletions. Entries arrive leaf-first, so
// the files of a directory are deleted before the directory itself. A
// failure is reported and counted, but does not abort the rest of the batch.
func (e *Engine) DeletePrunedItems(list []*fstree.Entry) int {
	deleted := 0
	for _, entry := range list {
		if err := e.removeFn(entry.Path()); err != nil && !os.IsNotExist(err) {
			e.issue.Emitf("deleting %s failed: %v", entry.Path(), err)
			// The entry was already detached during extraction. Put it
			// back so a later pass retries it once the block expires.
			e.NotePathAdded(entry.Path())
			if e.OnDeleteFailed != nil {
				e.OnDeleteFailed(entry, err)
			}
			continue
		}
		deleted++
		e.trace.Emitf("deleted %s (%s, %d bytes)", entry.Path(), entry.Kind(), entry.Length())
		if e.OnDeleted != nil {
			e.OnDeleted(entry)
		}
	}
	return deleted
}

// PerformIncrementalPrune runs bounded extract-and-delete cycles while
// pruning is still needed and the per-call cap is not exhausted. An empty
// batch or a partially failed batch halts the call and blocks pruning for a
// fixed cool-down so transient external locks are not retried in a tight
// loop. Returns whether anything was deleted.
func (e *Engine) PerformIncrementalPrune() bool {
	totalDeleted := 0
	for totalDeleted < e.settings.MaxDeletesPerCall && e.IsPruningNeeded() {
		batch := e.ExtractNextBatch()
		if len(batch) == 0 {
			e.block("no prunable entries despite exceeded limits")
			break
		}
		deleted := e.DeletePrunedItems(batch)
		totalDeleted += deleted
		if deleted != len(batch) {
			e.block(fmt.Sprintf("batch partially failed: %d of %d deleted", deleted, len(batch)))
			break
		}
	}
	if totalDeleted > 0 {
		e.logger.Info("incremental prune complete", "deleted", totalDeleted)
	}
	return totalDeleted > 0
}

// block suppresses pruning for the retry delay.
func (e *Engine) block(reason string) {
	e.blockedUntil = e.now().Add(pruneRetryDelay)
	e.logger.Warn("pruning blocked",
		"reason", reason,
		"retry_after", pruneRetryDelay,
	)
}

// NotePathAdded tells the engine about a newly created file or directory
// under its root so the path is tracked without a full rebuild. Paths
// outside the root are reported and ignored.
func (e *Engine) NotePathAdded(path string) {
	if e.root == nil {
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		e.issue.Emitf("note-added %s: %v", path, err)
		return
	}
	rel, err := filepath.Rel(e.settings.RootDir, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		e.issue.Emitf("note-added %s: outside managed root %s", path, e.settings.RootDir)
		return
	}
	segments := strings.Split(rel, string(filepath.Separator))
	e.root.AddRelativePath(segments, e.issue)
}

// Service refreshes the tree aggregates and, when requested and needed,
// performs one incremental prune pass. It is the call an owner makes
// periodically.
func (e *Engine) Service(cleanupIfNeeded bool) {
	if e.root == nil || !e.usable {
		return
	}
	e.root.UpdateTree(false, e.issue)
	if cleanupIfNeeded && e.IsPruningNeeded() {
		e.PerformIncrementalPrune()
	}
}
