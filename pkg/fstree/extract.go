package fstree

// ExtractOldest detaches the oldest cohort of prunable items from the
// subtree rooted at n and returns their entries, oldest first, for physical
// deletion by the caller. The node it is invoked on is never removed, so the
// tree root can never be pruned away.
//
// The walk has two phases. First it descends via FindOldest to the oldest
// leaf, recording the path on a stack. Then it walks back up: at each step
// the current node is removable only if it is an existing file or an empty
// existing directory; a node that vanished from the filesystem is silently
// dropped from the mirror without being scheduled for deletion. The first
// ancestor that is neither halts the upward walk, so at most one cohort is
// extracted per call and directories that become empty cascade away in the
// same call.
//
// maxFiles bounds the number of file entries extracted per call. When it is
// greater than one, removing a file is followed by pulling further
// oldest files from the same parent directory until the bound is reached,
// the parent runs out of children, or the next-oldest child is not an
// existing file. Directories removed by the empty-directory cascade do not
// count against the bound.
//
// Anomalies go to issue; per-step decisions go to trace. Both sinks may be
// nil.
func (n *Node) ExtractOldest(maxFiles int, issue, trace Sink) []*Entry {
	if issue == nil {
		issue = NopSink
	}
	if trace == nil {
		trace = NopSink
	}
	if maxFiles < 1 {
		maxFiles = 1
	}

	// Phase 1: descend to the oldest leaf.
	stack := []*Node{n}
	for cur := n.FindOldest(); cur != nil; cur = cur.FindOldest() {
		stack = append(stack, cur)
	}
	if len(stack) == 1 {
		// Nothing below this node; an empty tree has nothing prunable and
		// the node itself is never removed.
		trace.Emitf("extract: no children under %s", n.Path())
		return nil
	}

	var pruned []*Entry
	files := 0

	// Phase 2: ascend. stack[0] is n itself and is never touched.
ascend:
	for i := len(stack) - 1; i >= 1; i-- {
		node := stack[i]
		parent := stack[i-1]

		node.Refresh()

		switch {
		case !node.Exists():
			// Vanished between mirror and now. Drop it from the tree and
			// keep cascading; there is nothing to delete on disk.
			trace.Emitf("extract: %s vanished, dropping from mirror", node.Path())
			parent.detach(node)

		case node.IsExistingFile():
			parent.detach(node)
			pruned = append(pruned, entrySnapshot(node))
			files++
			trace.Emitf("extract: file %s", node.Path())

			// Cohort extension: pull further oldest files from the same
			// directory while the bound allows.
			for files < maxFiles {
				next := parent.FindOldest()
				if next == nil {
					break
				}
				next.Refresh()
				if !next.IsExistingFile() {
					break
				}
				parent.detach(next)
				pruned = append(pruned, entrySnapshot(next))
				files++
				trace.Emitf("extract: file %s (cohort)", next.Path())
			}

		case node.IsExistingDirectory() && node.ChildCount() == 0:
			parent.detach(node)
			pruned = append(pruned, entrySnapshot(node))
			trace.Emitf("extract: empty directory %s", node.Path())

		default:
			// Non-empty directory or something the mirror does not
			// understand; nothing above it is touched in this call.
			issue.Emitf("extract: %s is not removable, stopping", node.Path())
			break ascend
		}
	}

	n.UpdateTree(false, issue)
	return pruned
}

// entrySnapshot copies a detached node's entry so callers hold plain data,
// not references into the (now unlinked) node.
func entrySnapshot(n *Node) *Entry {
	e := n.Entry
	return &e
}
