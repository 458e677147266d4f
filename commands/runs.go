package commands

import (
	"fmt"

	"github.com/penwyp/go-colony-monitor/internal/data/store"
	"github.com/penwyp/go-colony-monitor/internal/presentation/formatter"
	"github.com/penwyp/go-colony-monitor/internal/util"
	"github.com/spf13/cobra"
)

var (
	runsLimit  int
	runsShow   string
	runsDelete string
	runsOutput string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List or show the runs stored in the SQLite database",
	Long: `Lists the analysis runs stored with --sqlite, newest first, or prints the
tables of one run.

Examples:
  go-colony-monitor runs --sqlite runs.db              # List stored runs
  go-colony-monitor runs --sqlite runs.db --show <id>  # Print the tables of a run
  go-colony-monitor runs --sqlite runs.db --delete <id># Delete a stored run`,
	RunE: runRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().String("sqlite", "", "SQLite database holding stored runs")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Limit listed runs (0 = unlimited)")
	runsCmd.Flags().StringVar(&runsShow, "show", "", "Run ID to print")
	runsCmd.Flags().StringVar(&runsDelete, "delete", "", "Run ID to delete")
	runsCmd.Flags().StringVarP(&runsOutput, "output", "o", formatter.OutputTable,
		"Output format of --show (table, json, csv, summary)")
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer util.CloseLogger()

	if cfg.SQLitePath == "" {
		return fmt.Errorf("no SQLite database configured, use --sqlite")
	}

	db, err := store.Open(cfg.SQLitePath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	out := cmd.OutOrStdout()
	if runsDelete != "" {
		if err := db.DeleteRun(ctx, runsDelete); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted run %s\n", runsDelete)
		return nil
	}
	if runsShow != "" {
		report, err := db.LoadReport(ctx, runsShow)
		if err != nil {
			return err
		}
		f, err := formatter.NewFormatter(runsOutput, out, "")
		if err != nil {
			return err
		}
		return f.Format(report)
	}

	runs, err := db.Runs(ctx, runsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No stored runs")
		return nil
	}
	for _, run := range runs {
		fmt.Fprintln(out, run.Describe())
	}
	return nil
}
