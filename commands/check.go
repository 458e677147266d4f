package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/penwyp/go-colony-monitor/internal/analyzer"
	"github.com/penwyp/go-colony-monitor/internal/data/validator"
	"github.com/penwyp/go-colony-monitor/internal/util"
	"github.com/spf13/cobra"
)

// errCheckFailed is returned when a source holds invalid records.
var errCheckFailed = errors.New("observation files hold invalid records")

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the observation files without computing statistics",
	Long: `Parses and validates every source and prints each problem found.
Exits with an error when any record fails validation.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer util.CloseLogger()

	a, err := analyzer.New(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	ds, report, loadErr := a.Load(ctx)
	if ds == nil {
		return loadErr
	}

	out := cmd.OutOrStdout()
	printCheckReport(out, ds, report)

	if loadErr != nil || report.HasFailures() {
		if loadErr != nil {
			fmt.Fprintf(out, "\n%v\n", loadErr)
		}
		return errCheckFailed
	}
	fmt.Fprintln(out, "\nAll sources valid")
	return nil
}

func printCheckReport(w io.Writer, ds *analyzer.Dataset, report validator.Report) {
	fmt.Fprintln(w, util.FormatHeaderTitle("Observation Check"))
	fmt.Fprintln(w, util.FormatSectionSeparator(min(util.TerminalWidth(), 60)))
	fmt.Fprintf(w, "Valid sources: %d\n", len(ds.Sources))
	for _, source := range ds.Sources {
		fmt.Fprintf(w, "  - %s\n", source)
	}
	fmt.Fprintf(w, "Activities: %s\n", util.FormatNumber(len(ds.Activities)))
	fmt.Fprintf(w, "Predators:  %s\n", util.FormatNumber(len(ds.Predators)))

	warnings := report.Warnings()
	failures := report.Failures()
	fmt.Fprintf(w, "\n%s\n", util.FormatDiagnosticTitle(fmt.Sprintf("Warnings: %d", len(warnings))))
	for _, issue := range warnings {
		fmt.Fprintf(w, "  %s\n", issue)
	}
	fmt.Fprintf(w, "%s\n", util.FormatDiagnosticTitle(fmt.Sprintf("Failures: %d", len(failures))))
	for _, issue := range failures {
		fmt.Fprintf(w, "  %s\n", util.FormatErrorText(issue.String()))
	}
}
