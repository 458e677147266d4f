package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-colony-monitor/internal/util"
)

const summaryWidth = 60

// SummaryFormatter prints one overview block per table instead of the
// full rows.
type SummaryFormatter struct {
	w io.Writer
}

// NewSummaryFormatter creates a new instance of SummaryFormatter.
func NewSummaryFormatter(w io.Writer) *SummaryFormatter {
	return &SummaryFormatter{w: w}
}

// Format prints the run metadata followed by the All/All row of every table
// that has one, or its row count otherwise.
func (f *SummaryFormatter) Format(report Report) error {
	fmt.Fprintln(f.w, strings.Repeat("=", summaryWidth))
	fmt.Fprintln(f.w, util.FormatHeaderTitle(util.CenterText("Colony Observation Summary Report", summaryWidth)))
	fmt.Fprintln(f.w, strings.Repeat("=", summaryWidth))
	fmt.Fprintln(f.w)

	if report.RunID != "" {
		fmt.Fprintf(f.w, "Run: %s\n", report.RunID)
	}
	fmt.Fprintf(f.w, "Sources: %d\n", len(report.Sources))
	fmt.Fprintf(f.w, "Warnings: %d\n", len(report.Warnings))
	for _, warning := range report.Warnings {
		fmt.Fprintf(f.w, "  - %s\n", warning)
	}
	fmt.Fprintln(f.w)

	if len(report.Tables) == 0 {
		fmt.Fprintln(f.w, "No data to summarize")
		fmt.Fprintln(f.w)
		fmt.Fprintln(f.w, strings.Repeat("=", summaryWidth))
		return nil
	}

	for _, table := range report.Tables {
		fmt.Fprintln(f.w, util.FormatOverviewTitle(fmt.Sprintf("%s (%d rows)", table.Name, len(table.Rows))))
		fmt.Fprintln(f.w, strings.Repeat("-", summaryWidth))
		row := overallRow(table)
		if row < 0 {
			fmt.Fprintln(f.w)
			continue
		}
		for i, h := range table.Headers {
			if i >= len(table.Rows[row]) {
				break
			}
			fmt.Fprintf(f.w, "  %-40s %s\n", h+":", table.Rows[row][i])
		}
		fmt.Fprintln(f.w)
	}

	fmt.Fprintln(f.w, strings.Repeat("=", summaryWidth))
	return nil
}

// overallRow finds the row aggregating every nest and camera, or the first
// row of tables not keyed by nest and camera.
func overallRow(table Table) int {
	if len(table.Rows) == 0 {
		return -1
	}
	nest, cam := table.Column("nest"), table.Column("cam")
	if nest < 0 || cam < 0 {
		return 0
	}
	for i, row := range table.Rows {
		if row[nest] == "All" && row[cam] == "All" {
			return i
		}
	}
	return 0
}
