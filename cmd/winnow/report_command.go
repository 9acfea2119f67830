package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"winnow/internal/ledger"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var runs int
	var runID string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show recorded scan runs and quarantine decisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			store, err := ledger.Open(cfg)
			if err != nil {
				return fmt.Errorf("open ledger store: %w", err)
			}
			defer store.Close()

			if id := strings.TrimSpace(runID); id != "" {
				return renderRunDetail(cmd, store, id)
			}
			return renderRunList(cmd, store, runs)
		},
	}

	cmd.Flags().IntVar(&runs, "runs", 10, "Number of recent runs to list")
	cmd.Flags().StringVar(&runID, "run", "", "Show one run and its quarantine decisions")
	return cmd
}

func renderRunList(cmd *cobra.Command, store *ledger.Store, limit int) error {
	runs, err := store.RecentRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No scans recorded yet.")
		return nil
	}

	headers := []string{"Run", "Root", "Started", "Duration", "Scanned", "Duplicates", "Errors", "Dry run"}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.Root,
			formatTime(run.StartedAt),
			run.Duration().Round(time.Millisecond).String(),
			formatCount(run.Scanned),
			formatCount(run.Duplicates),
			formatCount(run.Errors),
			yesNo(run.DryRun),
		})
	}
	fmt.Fprintln(out, renderTable(headers, rows, 4, 5, 6))
	return nil
}

func renderRunDetail(cmd *cobra.Command, store *ledger.Store, id string) error {
	run, err := store.RunByID(cmd.Context(), id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", id)
	}
	decisions, err := store.DecisionsForRun(cmd.Context(), run.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Run "+run.ID, colorize) {
		fmt.Fprintln(out, line)
	}

	finished := "in progress"
	if run.Finished() {
		finished = formatTime(*run.FinishedAt)
	}
	fmt.Fprintln(out, labelLine("Root", run.Root))
	fmt.Fprintln(out, labelLine("Started", formatTime(run.StartedAt)))
	fmt.Fprintln(out, labelLine("Finished", finished))
	fmt.Fprintln(out, labelLine("Duration", run.Duration().Round(time.Millisecond).String()))
	fmt.Fprintln(out, labelLine("Quarantine", run.QuarantineDir))
	fmt.Fprintln(out, labelLine("Dry run", yesNo(run.DryRun)))
	fmt.Fprintln(out, labelLine("Scanned", formatCount(run.Scanned)))
	fmt.Fprintln(out, labelLine("Duplicates", formatCount(run.Duplicates)))
	fmt.Fprintln(out, labelLine("Errors", formatCount(run.Errors)))

	if len(decisions) == 0 {
		fmt.Fprintln(out, "No duplicates were recorded for this run.")
		return nil
	}

	headers := []string{"Pipeline", "Kept copy", "Moved copy", "Quarantined as", "Reason"}
	rows := make([][]string, 0, len(decisions))
	for _, decision := range decisions {
		rows = append(rows, []string{
			pipelineLabel(decision.Pipeline),
			decision.KeptPath,
			decision.MovedPath,
			decision.MovedTo,
			decision.Reason,
		})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(headers, rows))
	return nil
}

func pipelineLabel(pipeline string) string {
	return cases.Title(language.Und).String(pipeline)
}

func formatTime(value time.Time) string {
	return value.Local().Format("2006-01-02 15:04:05")
}
