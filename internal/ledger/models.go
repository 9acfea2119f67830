package ledger

import "time"

// Run records one scan over a directory tree.
type Run struct {
	ID            string
	Root          string
	QuarantineDir string
	DryRun        bool
	StartedAt     time.Time
	FinishedAt    *time.Time
	Scanned       int64
	Duplicates    int64
	Errors        int64
}

// Finished reports whether the run has been closed out.
func (r *Run) Finished() bool {
	return r != nil && r.FinishedAt != nil
}

// Duration returns the wall-clock span of the run, or the elapsed time so
// far when the run is still open.
func (r *Run) Duration() time.Duration {
	if r == nil || r.StartedAt.IsZero() {
		return 0
	}
	if r.FinishedAt != nil {
		return r.FinishedAt.Sub(r.StartedAt)
	}
	return time.Since(r.StartedAt)
}

// Decision records one quarantine event: which copy was kept, which copy
// moved, and where it went.
type Decision struct {
	ID          int64
	RunID       string
	Pipeline    string
	Fingerprint string
	KeptPath    string
	MovedPath   string
	MovedTo     string
	Reason      string
	CreatedAt   time.Time
}
