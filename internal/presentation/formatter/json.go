package formatter

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"
)

type JSONFormatter struct {
	w io.Writer
}

func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{w: w}
}

// jsonTable keys each row by its header, keeping the header list for order.
type jsonTable struct {
	Name    string              `json:"name"`
	Headers []string            `json:"headers"`
	Rows    []map[string]string `json:"rows"`
}

type jsonReport struct {
	RunID       string      `json:"run_id"`
	GeneratedAt string      `json:"generated_at"`
	Sources     []string    `json:"sources"`
	Tables      []jsonTable `json:"tables"`
	Warnings    []string    `json:"warnings"`
}

func (f *JSONFormatter) Format(report Report) error {
	out := jsonReport{
		RunID:       report.RunID,
		GeneratedAt: report.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"),
		Sources:     report.Sources,
		Tables:      make([]jsonTable, 0, len(report.Tables)),
		Warnings:    append([]string{}, report.Warnings...),
	}
	for _, table := range report.Tables {
		jt := jsonTable{Name: table.Name, Headers: table.Headers, Rows: make([]map[string]string, 0, len(table.Rows))}
		for _, row := range table.Rows {
			m := make(map[string]string, len(table.Headers))
			for i, h := range table.Headers {
				if i < len(row) {
					m[h] = row[i]
				}
			}
			jt.Rows = append(jt.Rows, m)
		}
		out.Tables = append(out.Tables, jt)
	}

	data, err := sonic.ConfigStd.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	_, err = fmt.Fprintln(f.w, string(data))
	return err
}
