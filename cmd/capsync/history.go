package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"windreef/capsync/pkg/cli"
)

var historyFlags struct {
	limit int
	runID string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past reconciliation runs",
	Long: `Show reconciliation runs recorded in the local journal.

Without flags the most recent runs are listed. With --run the
per-user operations of one run are shown, including any failures,
which is the starting point for re-running after a partial apply.`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyFlags.limit, "limit", 20, "number of runs to list")
	historyCmd.Flags().StringVar(&historyFlags.runID, "run", "", "show the operations of one run")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.JournalEnabled() {
		return cli.NewConfigError("journal.enabled", "journaling is disabled")
	}

	jrnl, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer jrnl.Close()

	ctx := cli.SetupSignalHandler()

	if historyFlags.runID != "" {
		ops, err := jrnl.RunOperations(ctx, historyFlags.runID)
		if err != nil {
			return cli.NewCommandError("history", err)
		}
		if len(ops) == 0 {
			fmt.Printf("no operations recorded for run %s\n", historyFlags.runID)
			return nil
		}

		if outputFormat == "json" {
			return formatter().FormatTo(os.Stdout, ops)
		}

		table := cli.NewTable(os.Stdout)
		table.Row("ACTION", "EMAIL", "FROM", "TO", "ERROR")
		for _, op := range ops {
			from := "-"
			if op.FromCap != nil {
				from = fmt.Sprintf("%d", *op.FromCap)
			}
			table.Row(op.Action, op.Email, from, op.ToCap, op.Error)
		}
		return table.Flush()
	}

	runs, err := jrnl.ListRuns(ctx, historyFlags.limit)
	if err != nil {
		return cli.NewCommandError("history", err)
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	if outputFormat == "json" {
		return formatter().FormatTo(os.Stdout, runs)
	}

	table := cli.NewTable(os.Stdout)
	table.Row("RUN", "STARTED", "SOURCE", "OUTCOME", "PLANNED", "APPLIED", "FAILED")
	for _, run := range runs {
		table.Row(
			run.ID,
			run.StartedAt.Format(time.RFC3339),
			run.Source,
			run.Outcome,
			run.Planned,
			run.Applied,
			run.Failed,
		)
	}
	return table.Flush()
}
