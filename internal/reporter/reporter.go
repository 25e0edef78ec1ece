package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/csvspectre/internal/analyzer"
)

// Format controls report output format.
type Format string

const (
	FormatText       Format = "text"
	FormatJSON       Format = "json"
	FormatSARIF      Format = "sarif"
	FormatSpectreHub Format = "spectrehub"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatSARIF, FormatSpectreHub:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (want text, json, sarif or spectrehub)", s)
}

// Metadata holds report context.
type Metadata struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	Command   string `json:"command"`
	RunID     string `json:"run_id"`
	Timestamp string `json:"timestamp"`
	Target    string `json:"target,omitempty"` // analyzed directory
	URIHash   string `json:"uri_hash,omitempty"`
}

// Summary counts findings by severity and files by outcome.
type Summary struct {
	Files  int `json:"files"`
	Failed int `json:"failed"`
	Total  int `json:"total"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
	Info   int `json:"info"`
}

// Report is the top-level analyze output.
type Report struct {
	Metadata    Metadata              `json:"metadata"`
	Files       []analyzer.FileResult `json:"files"`
	Findings    []analyzer.Finding    `json:"findings"`
	MaxSeverity analyzer.Severity     `json:"max_severity"`
	Summary     Summary               `json:"summary"`
}

// NewReport builds a report from per-file results and the findings that
// survived filtering. A run ID and timestamp are filled in when absent.
func NewReport(meta Metadata, files []analyzer.FileResult, findings []analyzer.Finding) Report {
	meta = meta.withDefaults()

	summary := Summary{Files: len(files)}
	for i := range files {
		if files[i].Failed() {
			summary.Failed++
		}
	}
	for _, f := range findings {
		summary.Total++
		switch f.Severity {
		case analyzer.SeverityHigh:
			summary.High++
		case analyzer.SeverityMedium:
			summary.Medium++
		case analyzer.SeverityLow:
			summary.Low++
		case analyzer.SeverityInfo:
			summary.Info++
		}
	}

	if files == nil {
		files = []analyzer.FileResult{}
	}
	if findings == nil {
		findings = []analyzer.Finding{}
	}

	return Report{
		Metadata:    meta,
		Files:       files,
		Findings:    findings,
		MaxSeverity: analyzer.MaxSeverity(findings),
		Summary:     summary,
	}
}

func (m Metadata) withDefaults() Metadata {
	if m.Tool == "" {
		m.Tool = "csvspectre"
	}
	if m.RunID == "" {
		m.RunID = uuid.NewString()
	}
	if m.Timestamp == "" {
		m.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	if m.Target != "" && m.URIHash == "" {
		m.URIHash = HashURI(m.Target)
	}
	return m
}

// Write outputs the report in the given format.
func Write(w io.Writer, report *Report, format Format) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, report)
	case FormatSARIF:
		return writeSARIF(w, report)
	case FormatSpectreHub:
		return writeSpectreHub(w, report)
	default:
		return writeText(w, report)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

const separator = "------------------------------------------------------------"

func writeText(w io.Writer, report *Report) error {
	tw := &textWriter{w: w, color: useColor(w)}

	if len(report.Files) == 0 {
		tw.printf("No CSV files found.\n")
		return tw.err
	}

	tw.printf("Summary of missing/outlier/suspicious data in all CSV files:\n")
	for i := range report.Files {
		tw.file(&report.Files[i])
	}

	if len(report.Findings) > 0 {
		tw.printf("\n")
		for _, f := range report.Findings {
			tw.finding(f)
		}
	}

	tw.printf("\nSummary: %d files (%d failed), %d findings (high=%d medium=%d low=%d info=%d)\n",
		report.Summary.Files, report.Summary.Failed,
		report.Summary.Total, report.Summary.High, report.Summary.Medium, report.Summary.Low, report.Summary.Info)
	return tw.err
}

// textWriter stops writing after the first error.
type textWriter struct {
	w     io.Writer
	color bool
	err   error
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func (t *textWriter) file(fr *analyzer.FileResult) {
	t.printf("\nFile: %s\n", fr.File)
	if fr.Failed() {
		t.printf("  Error reading file: %s\n", fr.Error)
		t.printf("%s\n", separator)
		return
	}

	r := fr.Report
	t.printf("  Number of rows: %d\n", r.RowCount)
	t.printf("  Number of columns: %d\n", r.ColumnCount)
	t.printf("  Columns: [%s]\n", strings.Join(r.Columns, ", "))
	t.printf("  Missing data counts: %s\n", formatCounts(r.Columns, r.Missing))
	t.printf("  Outliers detected: %s\n", formatLists(r.Columns, r.Outliers))
	t.printf("  Suspicious categorical values: %s\n", formatLists(r.Columns, r.Suspicious))
	t.printf("%s\n", separator)
}

func (t *textWriter) finding(f analyzer.Finding) {
	label := paint(f.Severity, severityStyle[f.Severity].label, t.color)
	t.printf("[%s] %s: %s (%s)\n", label, f.Type, f.Message, location(f))

	if len(f.Detail) > 0 {
		keys := make([]string, 0, len(f.Detail))
		for k := range f.Detail {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			t.printf("  %s: %s\n", k, f.Detail[k])
		}
	}
}

// formatCounts renders a column map in column order, e.g. {a: 1, b: 2}.
func formatCounts(columns []string, m map[string]int) string {
	parts := make([]string, 0, len(m))
	for _, c := range columns {
		if n, ok := m[c]; ok {
			parts = append(parts, fmt.Sprintf("%s: %d", c, n))
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func formatLists(columns []string, m map[string][]string) string {
	parts := make([]string, 0, len(m))
	for _, c := range columns {
		if vals, ok := m[c]; ok {
			parts = append(parts, fmt.Sprintf("%s: [%s]", c, strings.Join(vals, ", ")))
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// location renders dataset.column, or just the dataset for file-level findings.
func location(f analyzer.Finding) string {
	if f.Column == "" {
		return f.Dataset
	}
	return f.Dataset + "." + f.Column
}
