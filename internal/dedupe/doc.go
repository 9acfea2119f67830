// Package dedupe decides which copy of a fingerprinted file survives a scan.
//
// A Table maps fingerprint keys to the current surviving candidate. The
// deepest path wins; ties keep whichever copy was seen first. Decisions are
// separated from commits so the caller can move a duplicate before the table
// records the outcome.
package dedupe
