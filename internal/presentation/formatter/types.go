package formatter

import (
	"fmt"
	"io"
	"time"
)

// Table is one statistic table: a name, its column headers and rows of
// already formatted cells.
type Table struct {
	Name    string     `json:"name"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Column returns the index of header name, -1 when absent.
func (t Table) Column(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// Cell returns the value of column name in row i.
func (t Table) Cell(i int, name string) (string, bool) {
	c := t.Column(name)
	if c < 0 || i < 0 || i >= len(t.Rows) || c >= len(t.Rows[i]) {
		return "", false
	}
	return t.Rows[i][c], true
}

// Report is the outcome of one analysis run.
type Report struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Sources     []string  `json:"sources"`
	Tables      []Table   `json:"tables"`
	// Warnings are the validation issues that did not stop the run.
	Warnings []string `json:"warnings"`
}

// Table returns the table called name.
func (r Report) Table(name string) (Table, bool) {
	for _, t := range r.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// Formatter renders a report.
type Formatter interface {
	Format(report Report) error
}

// Output formats
const (
	OutputTable   = "table"
	OutputCSV     = "csv"
	OutputJSON    = "json"
	OutputSummary = "summary"
)

// NewFormatter returns the formatter for output. csvDir only applies to
// the csv output: when set, each table goes to its own file there.
func NewFormatter(output string, w io.Writer, csvDir string) (Formatter, error) {
	switch output {
	case OutputTable, "":
		return NewTableFormatter(w), nil
	case OutputCSV:
		return NewCSVFormatter(w, csvDir), nil
	case OutputJSON:
		return NewJSONFormatter(w), nil
	case OutputSummary:
		return NewSummaryFormatter(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", output)
	}
}
