// Package preflight provides readiness checks for the paths a scan
// touches, run before any file is fingerprinted.
//
// The scan command calls RunAll before walking the tree; a failed check
// aborts the scan up front instead of letting it die halfway through a
// move. Dry runs relax the write-access requirements because nothing
// is moved.
package preflight
