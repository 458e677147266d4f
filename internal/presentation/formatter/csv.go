package formatter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/penwyp/go-colony-monitor/internal/util"
)

// CSVFormatter writes each table as CSV. With a directory, every table is
// written to <dir>/<name>.csv; otherwise tables are streamed to the writer
// one after another, each preceded by a "# name" line. Validation warnings
// go to the writer first as "# warning:" lines.
type CSVFormatter struct {
	w   io.Writer
	dir string
}

func NewCSVFormatter(w io.Writer, dir string) *CSVFormatter {
	return &CSVFormatter{w: w, dir: dir}
}

func (f *CSVFormatter) Format(report Report) error {
	for _, warning := range report.Warnings {
		fmt.Fprintf(f.w, "# warning: %s\n", warning)
	}
	if f.dir == "" {
		for i, table := range report.Tables {
			if i > 0 {
				fmt.Fprintln(f.w)
			}
			fmt.Fprintf(f.w, "# %s\n", table.Name)
			if err := writeCSV(f.w, table); err != nil {
				return err
			}
		}
		return nil
	}

	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("failed to create stats directory: %w", err)
	}
	for _, table := range report.Tables {
		path := filepath.Join(f.dir, table.Name+".csv")
		if err := writeCSVFile(path, table); err != nil {
			return err
		}
		util.LogDebug(fmt.Sprintf("Wrote table %s (%d rows) to %s", table.Name, len(table.Rows), path))
	}
	return nil
}

func writeCSVFile(path string, table Table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := writeCSV(file, table); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}

func writeCSV(out io.Writer, table Table) error {
	w := csv.NewWriter(out)
	if err := w.Write(table.Headers); err != nil {
		return err
	}
	if err := w.WriteAll(table.Rows); err != nil {
		return err
	}
	return w.Error()
}
