package fstree

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Node is one node in a directory-subtree mirror. It embeds the Entry
// identity of the filesystem object and adds tree structure, cumulative
// aggregates and the lazy-recomputation dirty flags.
//
// A Node exclusively owns its children. The parent pointer is a non-owning
// back-reference and is nil only at the tree root. The root additionally owns
// a tree-wide path index used for O(log n)-ish existence checks when new
// paths are reported.
type Node struct {
	Entry

	parent   *Node
	children childSet

	// index maps absolute path to node for the whole tree. Non-nil only on
	// the root node.
	index map[string]*Node

	// oldest is the derived oldest-time ordering key. It is only ever
	// changed through setOldest so the parent's child ordering stays
	// consistent.
	oldest time.Time

	// emptyFallback remembers the oldest time a directory had when its last
	// child was removed, so an emptied directory keeps aging from that point
	// instead of resetting to its own stat time.
	emptyFallback time.Time

	totalSize  int64
	totalItems int64
	totalFiles int64

	buildNeeded  bool
	updateNeeded bool
}

// NewTree constructs the root node of a new tree for rootPath. The node is
// classified immediately; call BuildTree to enumerate the subtree.
func NewTree(rootPath string) *Node {
	n := &Node{index: make(map[string]*Node)}
	n.SetPath(rootPath, false)
	n.index[n.Path()] = n
	return n
}

// newChildNode constructs a node from a stat already obtained during
// directory enumeration.
func newChildNode(path string, info fs.FileInfo) *Node {
	n := &Node{Entry: *newEntryFromInfo(path, info)}
	n.resetOwnAggregates()
	n.oldest = n.OldestTime(time.Time{})
	return n
}

// newLooseNode constructs and classifies a node for a path reported outside
// of an enumeration (AddRelativePath).
func newLooseNode(path string) *Node {
	n := &Node{}
	n.SetPath(path, false)
	return n
}

// SetPath resets (optionally) and reclassifies the node from path, records
// its single-node aggregates, and marks a directory node for rebuild.
func (n *Node) SetPath(path string, clearFirst bool) {
	if clearFirst {
		n.Entry.Clear()
		n.children.clear()
		n.emptyFallback = time.Time{}
	}
	n.Entry.SetPath(path)
	n.resetOwnAggregates()
	n.oldest = n.OldestTime(time.Time{})
	if n.IsExistingDirectory() {
		n.buildNeeded = true
		n.markUpdateNeeded()
	}
}

// resetOwnAggregates sets the aggregates to the node's own contribution:
// one item, its own byte length, and one file if it is a file.
func (n *Node) resetOwnAggregates() {
	n.totalSize = n.Length()
	n.totalItems = 1
	if n.IsExistingFile() {
		n.totalFiles = 1
	} else {
		n.totalFiles = 0
	}
}

// Parent returns the non-owning parent reference, nil at the root.
func (n *Node) Parent() *Node { return n.parent }

// ChildCount returns the number of immediate children currently mirrored.
func (n *Node) ChildCount() int { return n.children.len() }

// TotalSize returns the cumulative byte size of the subtree.
func (n *Node) TotalSize() int64 { return n.totalSize }

// TotalItems returns the cumulative item count of the subtree, including the
// node itself.
func (n *Node) TotalItems() int64 { return n.totalItems }

// TotalFiles returns the cumulative file count of the subtree.
func (n *Node) TotalFiles() int64 { return n.totalFiles }

// OldestAt returns the node's derived oldest time.
func (n *Node) OldestAt() time.Time { return n.oldest }

// FindOldest returns the immediate child with the smallest
// (oldest time, path) key, or nil if the node has no children.
func (n *Node) FindOldest() *Node { return n.children.min() }

// FindNewest returns the immediate child with the largest
// (oldest time, path) key, or nil if the node has no children.
func (n *Node) FindNewest() *Node { return n.children.max() }

// MarkChanged flags the node's directory contents as stale. The next
// UpdateTree re-enumerates this directory from disk instead of only
// refreshing already-known children. Used when an external change under the
// node was observed without knowing which path it touched.
func (n *Node) MarkChanged() {
	n.buildNeeded = true
	n.markUpdateNeeded()
}

// Lookup returns the tree node for an absolute path, or nil. Only valid on
// the root node.
func (n *Node) Lookup(path string) *Node {
	if n.index == nil {
		return nil
	}
	return n.index[path]
}

// root walks the parent chain to the tree root.
func (n *Node) root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// markUpdateNeeded sets the update-needed flag on the node and every
// ancestor, stopping at the first ancestor that already has it set. The
// stop makes repeated marking cheap: an already-marked chain is never
// re-walked.
func (n *Node) markUpdateNeeded() {
	for node := n; node != nil && !node.updateNeeded; node = node.parent {
		node.updateNeeded = true
	}
}

// setOldest changes the derived oldest time. Because the value is the
// ordering key in the parent's child set, the node is removed and reinserted
// around the mutation. This is the single call site enforcing the
// remove-then-reinsert invariant.
func (n *Node) setOldest(t time.Time) {
	if t.Equal(n.oldest) {
		return
	}
	if n.parent != nil {
		n.parent.children.remove(n)
		n.oldest = t
		n.parent.children.insert(n)
		return
	}
	n.oldest = t
}

// deriveOldest computes the oldest time from the current children per the
// package rules and applies it via setOldest.
func (n *Node) deriveOldest() {
	if n.IsExistingFile() {
		n.setOldest(n.ModTime())
		return
	}
	if min := n.children.min(); min != nil {
		n.setOldest(min.oldest)
		return
	}
	if !n.emptyFallback.IsZero() {
		n.setOldest(n.emptyFallback)
		return
	}
	n.setOldest(n.OldestTime(time.Time{}))
}

// attach links child under n and registers its path in the tree index.
func (n *Node) attach(child *Node) {
	child.parent = n
	n.children.insert(child)
	if idx := n.root().index; idx != nil {
		idx[child.Path()] = child
	}
}

// detach unlinks child from n, drops its subtree from the tree index, and
// re-derives n's oldest time. When the last child goes, the current oldest
// time is remembered as the emptied-directory fallback.
func (n *Node) detach(child *Node) {
	wasOldest := n.oldest
	n.children.remove(child)
	child.parent = nil
	if idx := n.root().index; idx != nil {
		child.forgetSubtree(idx)
	}
	if n.children.len() == 0 {
		n.emptyFallback = wasOldest
	}
	n.deriveOldest()
	n.markUpdateNeeded()
}

// forgetSubtree removes the node and all descendants from the path index.
func (n *Node) forgetSubtree(idx map[string]*Node) {
	delete(idx, n.Path())
	for _, c := range n.children.all() {
		c.forgetSubtree(idx)
	}
}

// BuildTree re-enumerates the node's immediate filesystem children and
// rebuilds the subtree beneath it. It is a no-op unless the node is marked
// build-needed or force is set. Child directories are built recursively;
// updateAtEnd is deliberately not propagated downward, each level updates
// independently. Entries that are neither regular files nor directories, or
// that vanish mid-enumeration, are reported to sink and skipped.
func (n *Node) BuildTree(updateAtEnd, force bool, sink Sink) {
	if sink == nil {
		sink = NopSink
	}
	if !n.buildNeeded && !force {
		return
	}
	if !n.IsExistingDirectory() {
		n.buildNeeded = false
		return
	}

	// Rebuild from scratch: existing children are dropped first.
	if idx := n.root().index; idx != nil {
		for _, c := range n.children.all() {
			c.forgetSubtree(idx)
		}
	}
	n.children.clear()

	entries, err := os.ReadDir(n.Path())
	if err != nil {
		sink.Emitf("listing %s failed: %v", n.Path(), err)
		n.buildNeeded = false
		n.markUpdateNeeded()
		return
	}

	for _, de := range entries {
		childPath := filepath.Join(n.Path(), de.Name())
		t := de.Type()
		if !t.IsRegular() && !t.IsDir() {
			sink.Emitf("skipping %s: unsupported object type %v", childPath, t)
			continue
		}
		info, err := de.Info()
		if err != nil {
			sink.Emitf("skipping %s: vanished during enumeration: %v", childPath, err)
			continue
		}
		child := newChildNode(childPath, info)
		n.attach(child)
		if child.IsExistingDirectory() {
			child.buildNeeded = true
			child.BuildTree(false, force, sink)
		}
	}

	n.buildNeeded = false
	n.markUpdateNeeded()
	if updateAtEnd {
		n.UpdateTree(true, sink)
	}
}

// UpdateTree recomputes the node's aggregates from its (recursively updated)
// children. A build-needed node builds first. The recomputation is skipped
// unless the node is marked update-needed or force is set.
//
// A child found to have vanished from the filesystem is detached from the
// mirror and reported; concurrent external deletion is tolerated, not fatal.
func (n *Node) UpdateTree(force bool, sink Sink) {
	if sink == nil {
		sink = NopSink
	}
	if n.buildNeeded {
		n.BuildTree(false, false, sink)
	}
	if !n.updateNeeded && !force {
		return
	}

	n.Refresh()
	n.resetOwnAggregates()

	for _, c := range n.children.all() {
		c.UpdateTree(force, sink)
		if !c.Exists() {
			sink.Emitf("dropping %s: no longer present", c.Path())
			n.detach(c)
			continue
		}
		n.totalSize += c.totalSize
		n.totalItems += c.totalItems
		n.totalFiles += c.totalFiles
	}

	n.deriveOldest()
	n.updateNeeded = false
}

// AddRelativePath walks downward from the node one path segment at a time,
// creating intermediate nodes as needed, and refreshes an already-mirrored
// file leaf. A mid-path segment that is neither an existing file nor an
// existing directory aborts the walk and is reported; an inconsistent add
// request must not corrupt the tree. The walk ends with UpdateTree on the
// starting node.
func (n *Node) AddRelativePath(segments []string, sink Sink) {
	if sink == nil {
		sink = NopSink
	}
	idx := n.root().index

	node := n
	for i, seg := range segments {
		node.markUpdateNeeded()
		childPath := filepath.Join(node.Path(), seg)

		var child *Node
		if idx != nil {
			child = idx[childPath]
		}
		if child == nil {
			child = newLooseNode(childPath)
			if !child.Exists() {
				sink.Emitf("add %s: segment %q does not exist", childPath, seg)
				return
			}
			node.attach(child)
			if child.IsExistingDirectory() {
				child.BuildTree(false, false, sink)
			}
		} else if child.IsExistingFile() {
			child.Refresh()
		}

		last := i == len(segments)-1
		if !last && !child.IsExistingDirectory() {
			sink.Emitf("add %s: %q is not a directory, aborting", childPath, seg)
			child.markUpdateNeeded()
			break
		}
		child.markUpdateNeeded()
		node = child
	}

	n.UpdateTree(false, sink)
}
