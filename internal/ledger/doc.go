// Package ledger persists scan run history in SQLite.
//
// Each scan opens a run row keyed by a generated identifier, appends one
// decision row per quarantined duplicate, and closes the run with final
// counters. The report command reads this history back; nothing in the scan
// path ever depends on prior runs, so a missing or deleted database only
// costs history.
package ledger
