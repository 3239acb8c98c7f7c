// Package metric provides Prometheus metrics for minisocial-cli.
//
//   - prometheus.go: the registry, client-side request and session metrics
//   - collector.go: a collector reporting the current session state
//
// The CLI has no scrape endpoint; metrics are rendered in the Prometheus
// text format by `minisocial-cli system metrics` or at REPL exit.
package metric
