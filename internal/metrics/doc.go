// Package metrics records link check metrics.
//
// Components receive a Recorder and default to NoopRecorder, so metrics never
// need nil checks at call sites. When a textfile path is configured the CLI
// swaps in a PrometheusRecorder and writes the registry to disk after each
// run, ready for the node_exporter textfile collector.
package metrics
