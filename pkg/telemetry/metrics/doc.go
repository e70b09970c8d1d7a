// Package metrics implements Prometheus metrics for Arbor.
//
// The Collector owns a private registry and two metric groups: tree gauges
// describing the current state of each managed root's mirror, and prune
// metrics counting deletions and observing prune pass latency. Handler
// exposes the registry in Prometheus exposition format for mounting at
// /metrics.
//
// All root-level metrics carry a "root" label with the configured root
// name, so one daemon managing several roots stays distinguishable on a
// single endpoint.
package metrics
