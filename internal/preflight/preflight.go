package preflight

import (
	"winnow/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem checks a scan depends on. Dry runs relax
// the write-access requirements because nothing is moved.
func RunAll(cfg *config.Config, root string, dryRun bool) []Result {
	if cfg == nil {
		return nil
	}

	return []Result{
		CheckScanRoot(root, dryRun),
		CheckQuarantinePath(root, cfg.Scan.QuarantineDirName, dryRun),
		CheckStateDir(cfg),
	}
}

// Failures filters results down to the checks that did not pass.
func Failures(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}
