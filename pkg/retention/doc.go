// Package retention implements policy-driven incremental pruning of a
// managed directory tree.
//
// # Engine
//
// An Engine owns one fstree mirror of a root directory and enforces the
// configured limits on it: total item count, total file count, cumulative
// byte size, and maximum age of the oldest item. Each limit is optional; a
// zero value disables it.
//
//	eng := retention.NewEngine("spool", nil)
//	if !eng.Setup(settings) {
//	    log.Fatalf("directory unusable: %s", eng.Fault())
//	}
//	for {
//	    eng.Service(true) // refresh aggregates, prune if needed
//	    time.Sleep(pollInterval)
//	}
//
// Setup failures never panic or propagate as errors; the first fault is
// latched as a string and gates IsDirectoryUsable. Runtime deletion failures
// put the engine into a fixed cool-down so a file held open by another
// process cannot cause a tight retry loop.
//
// The engine is strictly single-owner: calls must be serialized by the
// caller. The Scheduler in this package does that for cron-driven operation.
//
// # Granularity
//
// In ModePerFile each incremental step removes a single oldest file (plus
// any directories that become empty as a result). In ModePerDirectory a step
// removes a whole cohort of oldest files from one directory, bounded by the
// per-call deletion cap, which amortizes pruning cost over batches.
package retention
