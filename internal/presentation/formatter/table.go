package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-colony-monitor/internal/util"
)

// TableFormatter prints every table with box drawing borders.
type TableFormatter struct {
	w io.Writer
}

func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{w: w}
}

func (f *TableFormatter) Format(report Report) error {
	for i, table := range report.Tables {
		if i > 0 {
			fmt.Fprintln(f.w)
		}
		if err := f.formatTable(table); err != nil {
			return err
		}
	}
	printWarnings(f.w, report.Warnings)
	return nil
}

// printWarnings lists the validation warnings of a run after its tables.
func printWarnings(w io.Writer, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, util.FormatDiagnosticTitle(fmt.Sprintf("Warnings (%d)", len(warnings))))
	for _, warning := range warnings {
		fmt.Fprintf(w, "  - %s\n", warning)
	}
}

func (f *TableFormatter) formatTable(table Table) error {
	fmt.Fprintln(f.w, util.FormatDataTitle(table.Name))
	if len(table.Rows) == 0 {
		fmt.Fprintln(f.w, "  (no rows)")
		return nil
	}

	widths := f.calculateColumnWidths(table)

	f.printBorder(widths, "top")
	f.printRow(table.Headers, widths, true)
	f.printBorder(widths, "middle")
	for _, row := range table.Rows {
		f.printRow(row, widths, false)
	}
	f.printBorder(widths, "bottom")
	return nil
}

// calculateColumnWidths sizes each column to its widest cell
func (f *TableFormatter) calculateColumnWidths(table Table) []int {
	widths := make([]int, len(table.Headers))
	for i, header := range table.Headers {
		widths[i] = util.GetDisplayWidth(header)
	}
	for _, row := range table.Rows {
		for i, value := range row {
			if i < len(widths) && util.GetDisplayWidth(value) > widths[i] {
				widths[i] = util.GetDisplayWidth(value)
			}
		}
	}
	return widths
}

// printBorder prints table borders (top, middle, bottom)
func (f *TableFormatter) printBorder(widths []int, borderType string) {
	var left, middle, right string
	switch borderType {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	case "bottom":
		left, middle, right = "└", "┴", "┘"
	}

	var b strings.Builder
	b.WriteString(left)
	for i, width := range widths {
		b.WriteString(strings.Repeat("─", width+2))
		if i < len(widths)-1 {
			b.WriteString(middle)
		}
	}
	b.WriteString(right)
	fmt.Fprintln(f.w, b.String())
}

// printRow left-aligns the key columns and headers, right-aligns numbers
func (f *TableFormatter) printRow(values []string, widths []int, header bool) {
	var b strings.Builder
	b.WriteString("│")
	for i, width := range widths {
		value := ""
		if i < len(values) {
			value = values[i]
		}
		if header || !isNumeric(value) {
			b.WriteString(" " + util.PadRight(value, width) + " │")
		} else {
			b.WriteString(" " + util.PadLeft(value, width) + " │")
		}
	}
	fmt.Fprintln(f.w, b.String())
}

func isNumeric(s string) bool {
	if s == util.NaNText {
		return true
	}
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != '-' && r != ':' {
			return false
		}
	}
	return true
}
