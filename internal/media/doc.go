// Package media defines the candidate model shared by the scan pipelines.
//
// A Candidate pairs a file with the attributes the deduplicator needs: its
// kind (image or video), its depth below the scan root, and its size. The
// package also carries the error taxonomy used across fingerprinting,
// relocation, and scanning so callers can classify failures with errors.Is,
// plus the context keys that thread run and pipeline identifiers into logs.
package media
