package main

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// scanProgress renders a terminal spinner with a live file count. The
// total is unknown up front, so the bar runs in indeterminate mode.
type scanProgress struct {
	bar *progressbar.ProgressBar
}

// newScanProgress returns nil when progress output is suppressed or the
// writer is not a terminal; callers treat a nil receiver as a no-op.
func newScanProgress(writer io.Writer, quiet bool) *scanProgress {
	if quiet || !shouldColorize(writer) {
		return nil
	}
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(writer),
		progressbar.OptionSetDescription("scanning"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return &scanProgress{bar: bar}
}

// step is called from the scan coordinator for every processed file and
// must stay cheap.
func (p *scanProgress) step() {
	if p == nil {
		return
	}
	_ = p.bar.Add(1)
}

func (p *scanProgress) finish() {
	if p == nil {
		return
	}
	_ = p.bar.Finish()
}
