// Package quarantine relocates losing duplicates into a dedicated directory
// inside the scanned folder. Names are preserved where possible; colliding
// names gain a numeric suffix before the extension so nothing is overwritten.
package quarantine
