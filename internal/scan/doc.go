// Package scan drives a deduplication run over a directory tree.
//
// A run walks the tree once per pipeline (images, then videos). Each pass
// streams candidates from a lexical-order walker to a pool of fingerprint
// workers and funnels results into a single coordinator goroutine that owns
// the survivor table, the quarantine sink, and ledger appends. Per-file
// failures are counted and logged, never fatal; a flock keyed by the root
// path rejects concurrent scans of the same tree.
package scan
