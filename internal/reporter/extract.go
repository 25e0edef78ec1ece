package reporter

import (
	"fmt"
	"io"

	"github.com/ppiankov/csvspectre/internal/sqldump"
)

// ExtractTable is the per-table outcome of an extract run.
type ExtractTable struct {
	Name       string `json:"name"`
	Columns    int    `json:"columns"`
	Rows       int    `json:"rows"`
	Dropped    int    `json:"dropped_rows"`
	Statements int    `json:"statements"`
	File       string `json:"file,omitempty"`
	Stored     int64  `json:"stored_rows,omitempty"`
}

// ExtractReport summarizes an extract run.
type ExtractReport struct {
	Metadata Metadata       `json:"metadata"`
	SQLFile  string         `json:"sql_file,omitempty"`
	Tables   []ExtractTable `json:"tables"`
	Skipped  int            `json:"skipped_statements,omitempty"`
}

// NewExtractReport pairs each extracted table with the file it was written
// to. files may be shorter than res.Tables when writing stopped early.
func NewExtractReport(meta Metadata, res sqldump.Result, files []string) ExtractReport {
	out := ExtractReport{
		Metadata: meta.withDefaults(),
		Tables:   make([]ExtractTable, 0, len(res.Tables)),
		Skipped:  res.Skipped,
	}
	for i, t := range res.Tables {
		et := ExtractTable{
			Name:       t.Name,
			Columns:    len(t.Columns),
			Rows:       len(t.Rows),
			Dropped:    t.Dropped,
			Statements: t.Statements,
		}
		if i < len(files) {
			et.File = files[i]
		}
		out.Tables = append(out.Tables, et)
	}
	return out
}

// WriteExtract outputs the extract summary as text or JSON. SARIF and
// spectre/v1 carry findings only, so they fall back to JSON.
func WriteExtract(w io.Writer, report *ExtractReport, format Format) error {
	if format != FormatText {
		return writeJSON(w, report)
	}

	tw := &textWriter{w: w}
	if len(report.Tables) == 0 {
		tw.printf("No INSERT INTO statements found in the SQL output.\n")
		return tw.err
	}

	if report.SQLFile != "" {
		tw.printf("Saved SQL to %s\n", report.SQLFile)
	}
	for _, t := range report.Tables {
		line := fmt.Sprintf("Table %s: %d rows, %d columns", t.Name, t.Rows, t.Columns)
		if t.Dropped > 0 {
			line += fmt.Sprintf(", %d malformed rows dropped", t.Dropped)
		}
		if t.Stored > 0 {
			line += fmt.Sprintf(", %d rows stored", t.Stored)
		}
		if t.File != "" {
			line += " -> " + t.File
		}
		tw.printf("%s\n", line)
	}
	if report.Skipped > 0 {
		tw.printf("Skipped %d incomplete INSERT statements\n", report.Skipped)
	}
	return tw.err
}
