// Package fstree maintains a live, mutable in-memory mirror of a directory
// subtree together with the aggregate statistics needed for oldest-first
// pruning decisions.
//
// # Tree Model
//
// A tree is rooted at a single directory Node. Every Node embeds an Entry
// (cached path, leaf name, kind classification and stat attributes) and owns
// its child Nodes. Per node, the tree keeps three cumulative aggregates over
// the subtree (byte size, item count, file count) plus a derived "oldest time":
//
//   - a file's oldest time is its own stat time
//   - a non-empty directory's oldest time is the minimum over its children
//   - a directory that had children and lost them keeps the last known value
//   - a directory that was always empty uses its own stat time
//
// Children are held in a total order by (oldest time, path), so finding the
// oldest or newest immediate child is cheap. Because the ordering key is
// mutable, the set is updated strictly via remove-then-reinsert; see
// Node.setOldest.
//
// # Incremental Maintenance
//
// Two dirty flags drive lazy recomputation. "Build needed" means children must
// be re-listed from disk; "update needed" means cached aggregates must be
// recomputed from current children. Marking a node update-needed propagates the
// flag to all ancestors, stopping at the first already-marked one.
//
// # Pruning
//
// Node.ExtractOldest detaches the oldest cohort of prunable items from the
// tree and returns their entries for physical deletion by the caller. The walk
// is bounded per call and cascades the removal of directories that become
// empty, but never removes the node it was invoked on.
//
// # Error Reporting
//
// Tree operations never fail hard on filesystem anomalies. Entries that vanish
// between listing and stat, or that are neither regular files nor directories,
// are reported through an injected Sink and skipped. Pass NopSink to discard
// reports.
//
// The package performs no locking. A tree has a single owner which serializes
// all calls.
package fstree
