// Package watcher observes a managed directory root for filesystem changes
// and feeds them to the retention engine owner.
//
// Newly created paths are reported immediately through the OnAdded callback
// so the engine can track them without a rescan. All other relevant change
// traffic (writes, removes, renames) is debounced into a single OnSettle
// callback after a quiet period, which the owner typically answers with a
// tree refresh. Watches are added recursively and follow directories
// created after the watcher started.
package watcher
