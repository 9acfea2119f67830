package main

import (
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"winnow/internal/config"
	"winnow/internal/ledger"
	"winnow/internal/logging"
	"winnow/internal/media"
	"winnow/internal/preflight"
	"winnow/internal/scan"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var workers int
	var quiet bool

	cmd := &cobra.Command{
		Use:   "scan <folder>",
		Short: "Scan a folder tree and quarantine duplicate media files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, ctx, args[0], dryRun, workers, quiet)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report duplicates without moving anything")
	cmd.Flags().IntVar(&workers, "workers", 0, "Fingerprint worker count (defaults to configuration)")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress progress output and informational logs")
	return cmd
}

func runScan(cmd *cobra.Command, ctx *commandContext, rootArg string, dryRun bool, workers int, quiet bool) error {
	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	root, err := config.ExpandPath(strings.TrimSpace(rootArg))
	if err != nil {
		return fmt.Errorf("resolve scan root: %w", err)
	}

	logger, err := ctx.buildLogger(cfg, quiet)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "*.log", Exclude: []string{logging.LogFilePath(cfg)}},
	)

	out := cmd.OutOrStdout()
	if err := runPreflight(out, cfg, root, dryRun); err != nil {
		return err
	}

	store, err := ledger.Open(cfg)
	if err != nil {
		logger.Error("open ledger store", logging.Error(err))
		return err
	}
	defer store.Close()

	scanner, err := scan.New(cfg, store, logger)
	if err != nil {
		return err
	}

	opts := scan.Options{Root: root, DryRun: dryRun, Workers: workers}
	progress := newScanProgress(cmd.ErrOrStderr(), quiet)
	if progress != nil {
		opts.OnFile = func(media.Candidate) { progress.step() }
	}

	summary, err := scanner.Run(signalCtx, opts)
	progress.finish()
	if err != nil {
		return err
	}

	renderScanSummary(out, summary)
	return nil
}

// runPreflight prints every check result when at least one fails; a clean
// pass stays silent so scan output leads with the scan itself.
func runPreflight(out io.Writer, cfg *config.Config, root string, dryRun bool) error {
	results := preflight.RunAll(cfg, root, dryRun)
	failures := preflight.Failures(results)
	if len(failures) == 0 {
		return nil
	}

	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Preflight", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, check := range results {
		kind := statusOK
		if !check.Passed {
			kind = statusError
		}
		fmt.Fprintln(out, renderStatusLine(check.Name, kind, check.Detail, colorize))
	}
	return fmt.Errorf("preflight failed: %d of %d checks did not pass", len(failures), len(results))
}

func renderScanSummary(out io.Writer, summary *scan.Summary) {
	if summary == nil {
		return
	}

	headers := []string{"Pipeline", "Scanned", "Duplicates", "Errors"}
	rows := make([][]string, 0, len(summary.Pipelines)+1)
	for _, p := range summary.Pipelines {
		rows = append(rows, []string{pipelineLabel(p.Pipeline), formatCount(p.Scanned), formatCount(p.Duplicates), formatCount(p.Errors)})
	}
	rows = append(rows, []string{"Total", formatCount(summary.Scanned), formatCount(summary.Duplicates), formatCount(summary.Errors)})
	fmt.Fprintln(out, renderTable(headers, rows, 1, 2, 3))

	switch {
	case summary.DryRun:
		fmt.Fprintf(out, "Dry run: %d duplicates identified; nothing was moved.\n", summary.Duplicates)
	case summary.Duplicates > 0:
		fmt.Fprintf(out, "Moved %d duplicates to %s\n", summary.Duplicates, summary.QuarantineDir)
	default:
		fmt.Fprintln(out, "No duplicates found.")
	}
	if summary.Errors > 0 {
		detail := fmt.Sprintf("%d files could not be processed (see log)", summary.Errors)
		fmt.Fprintln(out, renderStatusLine("Skipped files", statusWarn, detail, shouldColorize(out)))
	}
	fmt.Fprintf(out, "Run %s finished in %s.\n", summary.RunID, summary.Duration.Round(time.Millisecond))
}

func formatCount(value int64) string {
	return strconv.FormatInt(value, 10)
}
