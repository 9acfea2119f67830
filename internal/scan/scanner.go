package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"winnow/internal/config"
	"winnow/internal/ledger"
	"winnow/internal/logging"
	"winnow/internal/media"
	"winnow/internal/quarantine"
)

// Scanner owns the pieces shared by every run: configuration, the audit
// ledger, and the logger.
type Scanner struct {
	cfg    *config.Config
	store  *ledger.Store
	logger *slog.Logger
}

// New constructs a scanner. Scan log lines carry a "scan" component prefix.
func New(cfg *config.Config, store *ledger.Store, logger *slog.Logger) (*Scanner, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("scanner requires config and ledger store")
	}
	return &Scanner{cfg: cfg, store: store, logger: logging.NewComponentLogger(logger, "scan")}, nil
}

// Options control a single run.
type Options struct {
	// Root is the directory tree to inspect.
	Root string
	// DryRun records decisions without touching the filesystem.
	DryRun bool
	// Workers overrides the configured fingerprint worker count when positive.
	Workers int
	// OnFile, when set, is invoked for every file that finished
	// fingerprinting. Calls are serialized on the coordinator goroutine and
	// must return quickly.
	OnFile func(media.Candidate)
}

// PipelineSummary counts one kind's pass over the tree.
type PipelineSummary struct {
	Pipeline   string
	Scanned    int64
	Duplicates int64
	Errors     int64
}

// Summary aggregates a completed run.
type Summary struct {
	RunID         string
	Root          string
	QuarantineDir string
	DryRun        bool
	Duration      time.Duration
	Pipelines     []PipelineSummary
	Scanned       int64
	Duplicates    int64
	Errors        int64
}

// Run executes a full deduplication pass: the image pipeline first, then the
// video pipeline, each walking the whole tree. Per-file failures are logged,
// counted, and skipped. Run returns an error only for top-level problems
// such as a missing root, a held scan lock, or cancellation.
func (s *Scanner) Run(ctx context.Context, opts Options) (*Summary, error) {
	root, err := normalizeRoot(opts.Root)
	if err != nil {
		return nil, err
	}

	lock, err := acquireRootLock(s.cfg, root)
	if err != nil {
		return nil, err
	}
	defer lock.release(s.logger)

	run, err := s.store.BeginRun(ctx, root, filepath.Join(root, s.cfg.Scan.QuarantineDirName), opts.DryRun)
	if err != nil {
		return nil, err
	}

	ctx = media.WithRunID(ctx, run.ID)
	workers := s.resolveWorkers(opts.Workers)
	logger := logging.WithContext(ctx, s.logger)
	logger.Info("scan started",
		logging.String("root", root),
		logging.Bool("dry_run", opts.DryRun),
		logging.Int("workers", workers),
	)

	sink := quarantine.NewSink(run.QuarantineDir, s.logger, quarantine.WithDryRun(opts.DryRun))

	summary := &Summary{
		RunID:         run.ID,
		Root:          root,
		QuarantineDir: sink.Dir(),
		DryRun:        opts.DryRun,
	}
	var runErr error
	for _, kind := range []media.Kind{media.KindImage, media.KindVideo} {
		pipeline, err := s.runPipeline(ctx, kind, root, workers, sink, run, opts)
		summary.Pipelines = append(summary.Pipelines, pipeline)
		summary.Scanned += pipeline.Scanned
		summary.Duplicates += pipeline.Duplicates
		summary.Errors += pipeline.Errors
		if err != nil {
			runErr = err
			break
		}
	}

	run.Scanned = summary.Scanned
	run.Duplicates = summary.Duplicates
	run.Errors = summary.Errors
	// Close out the run row even when the context was canceled mid-scan.
	finishCtx := context.WithoutCancel(ctx)
	if err := s.store.FinishRun(finishCtx, run); err != nil {
		if runErr == nil {
			runErr = err
		} else {
			logger.Warn("failed to close out run record", logging.Error(err))
		}
	}
	if runErr != nil {
		return nil, runErr
	}

	summary.Duration = run.Duration()
	logger.Info("scan finished",
		logging.Int64("scanned", summary.Scanned),
		logging.Int64("duplicates", summary.Duplicates),
		logging.Int64("errors", summary.Errors),
		logging.Duration("elapsed", summary.Duration),
	)
	return summary, nil
}

func normalizeRoot(root string) (string, error) {
	trimmed := strings.TrimSpace(root)
	if trimmed == "" {
		return "", media.Wrap(media.ErrInvalidArgument, "", "resolve root", "scan root is required", nil)
	}
	expanded, err := config.ExpandPath(trimmed)
	if err != nil {
		return "", media.Wrap(media.ErrInvalidArgument, "", "resolve root", "failed to resolve scan root", err)
	}
	info, err := os.Stat(expanded)
	if err != nil {
		return "", media.Wrap(media.ErrIO, "", "resolve root", "cannot read scan root", err)
	}
	if !info.IsDir() {
		return "", media.Wrap(media.ErrInvalidArgument, "", "resolve root", fmt.Sprintf("%s is not a directory", expanded), nil)
	}
	return expanded, nil
}

// resolveWorkers picks the fingerprint worker count: explicit override,
// then config, then a CPU-derived default.
func (s *Scanner) resolveWorkers(override int) int {
	workers := s.cfg.Scan.Workers
	if override > 0 {
		workers = override
	}
	if workers <= 0 {
		workers = min(runtime.GOMAXPROCS(0), 8)
	}
	return workers
}
