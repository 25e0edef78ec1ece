package reporter

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/ppiankov/csvspectre/internal/analyzer"
	"github.com/ppiankov/csvspectre/internal/sqldump"
)

var testFiles = []analyzer.FileResult{
	{
		File: "people.csv",
		Report: &analyzer.QualityReport{
			RowCount:    6,
			ColumnCount: 3,
			Columns:     []string{"age", "born", "city"},
			Missing:     map[string]int{"born": 1},
			Outliers:    map[string][]string{"age": {"100"}, "born": {"1800-01-01"}},
			Suspicious:  map[string][]string{"city": {"Unknown", "XX"}},
		},
	},
	{File: "broken.csv", Error: "load dataset: record on line 2: wrong number of fields"},
}

var testFindings = []analyzer.Finding{
	{Type: analyzer.FindingLoadFailure, Severity: analyzer.SeverityHigh, Dataset: "broken.csv", Message: "wrong number of fields"},
	{Type: analyzer.FindingNumericOutlier, Severity: analyzer.SeverityMedium, Dataset: "people.csv", Column: "age", Message: "1 outlier value(s)", Detail: map[string]string{"values": `"100"`}},
	{Type: analyzer.FindingMissingValues, Severity: analyzer.SeverityLow, Dataset: "people.csv", Column: "born", Message: "1 of 6 values missing"},
}

func TestNewReport_Summary(t *testing.T) {
	r := NewReport(Metadata{Command: "analyze", Version: "test"}, testFiles, testFindings)

	if r.Summary.Total != 3 {
		t.Errorf("total = %d, want 3", r.Summary.Total)
	}
	if r.Summary.High != 1 || r.Summary.Medium != 1 || r.Summary.Low != 1 {
		t.Errorf("summary = %+v, want high=1 medium=1 low=1", r.Summary)
	}
	if r.Summary.Files != 2 || r.Summary.Failed != 1 {
		t.Errorf("files = %d failed = %d, want 2 and 1", r.Summary.Files, r.Summary.Failed)
	}
	if r.MaxSeverity != analyzer.SeverityHigh {
		t.Errorf("maxSeverity = %q, want %q", r.MaxSeverity, analyzer.SeverityHigh)
	}
	if r.Metadata.Tool != "csvspectre" {
		t.Errorf("tool = %q, want csvspectre", r.Metadata.Tool)
	}
	if r.Metadata.Command != "analyze" {
		t.Errorf("command = %q, want analyze", r.Metadata.Command)
	}
	if len(r.Metadata.RunID) != 36 {
		t.Errorf("run id = %q, want a UUID", r.Metadata.RunID)
	}
	if r.Metadata.Timestamp == "" {
		t.Error("timestamp should be set")
	}
}

func TestNewReport_DistinctRunIDs(t *testing.T) {
	a := NewReport(Metadata{}, nil, nil)
	b := NewReport(Metadata{}, nil, nil)
	if a.Metadata.RunID == b.Metadata.RunID {
		t.Error("each report should get its own run id")
	}

	c := NewReport(Metadata{RunID: "fixed"}, nil, nil)
	if c.Metadata.RunID != "fixed" {
		t.Errorf("run id = %q, want fixed", c.Metadata.RunID)
	}
}

func TestNewReport_Empty(t *testing.T) {
	r := NewReport(Metadata{}, nil, nil)

	if r.Summary.Total != 0 {
		t.Errorf("total = %d, want 0", r.Summary.Total)
	}
	if r.MaxSeverity != analyzer.SeverityInfo {
		t.Errorf("maxSeverity = %q, want %q", r.MaxSeverity, analyzer.SeverityInfo)
	}
	if r.Findings == nil || r.Files == nil {
		t.Error("findings and files should be empty slices, not nil")
	}
}

func TestNewReport_TargetHash(t *testing.T) {
	r := NewReport(Metadata{Target: "data/csv"}, nil, nil)
	if r.Metadata.URIHash != HashURI("data/csv") {
		t.Errorf("uri_hash = %q", r.Metadata.URIHash)
	}
}

func TestWriteText(t *testing.T) {
	r := NewReport(Metadata{Command: "analyze"}, testFiles, testFindings)
	var buf bytes.Buffer
	if err := Write(&buf, &r, FormatText); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{
		"Summary of missing/outlier/suspicious data in all CSV files:",
		"File: people.csv",
		"  Number of rows: 6",
		"  Number of columns: 3",
		"  Columns: [age, born, city]",
		"  Missing data counts: {born: 1}",
		"  Outliers detected: {age: [100], born: [1800-01-01]}",
		"  Suspicious categorical values: {city: [Unknown, XX]}",
		"File: broken.csv",
		"  Error reading file: load dataset: record on line 2: wrong number of fields",
		strings.Repeat("-", 60),
		"[HIGH] LOAD_FAILURE: wrong number of fields (broken.csv)",
		"[MEDIUM] NUMERIC_OUTLIER: 1 outlier value(s) (people.csv.age)",
		`  values: "100"`,
		"Summary: 2 files (1 failed), 3 findings (high=1 medium=1 low=1 info=0)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("non-terminal output should not contain color codes")
	}
}

func TestWriteText_SeparatorPerFile(t *testing.T) {
	r := NewReport(Metadata{}, testFiles, nil)
	var buf bytes.Buffer
	if err := Write(&buf, &r, FormatText); err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(buf.String(), strings.Repeat("-", 60)+"\n"); got != 2 {
		t.Errorf("separators = %d, want 2", got)
	}
}

func TestWriteText_NoFiles(t *testing.T) {
	r := NewReport(Metadata{}, nil, nil)
	var buf bytes.Buffer
	if err := Write(&buf, &r, FormatText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No CSV files found.") {
		t.Errorf("expected 'No CSV files found.', got %q", buf.String())
	}
}

func TestWriteJSON(t *testing.T) {
	r := NewReport(Metadata{Command: "analyze"}, testFiles, testFindings)
	var buf bytes.Buffer
	if err := Write(&buf, &r, FormatJSON); err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	files, ok := decoded["files"].([]any)
	if !ok || len(files) != 2 {
		t.Fatalf("files = %v", decoded["files"])
	}
	first := files[0].(map[string]any)
	if first["file_name"] != "people.csv" {
		t.Errorf("file_name = %v", first["file_name"])
	}
	report := first["report"].(map[string]any)
	for _, key := range []string{"row_count", "column_count", "column_names", "missing_by_column", "outliers_by_column", "suspicious_by_column"} {
		if _, ok := report[key]; !ok {
			t.Errorf("report missing key %q", key)
		}
	}
	if files[1].(map[string]any)["error"] == "" {
		t.Error("failed file should carry its error")
	}
	if decoded["max_severity"] != "high" {
		t.Errorf("max_severity = %v", decoded["max_severity"])
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"text", "JSON", "sarif", "spectrehub"} {
		if _, err := ParseFormat(s); err != nil {
			t.Errorf("ParseFormat(%q) error: %v", s, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

func TestPaint(t *testing.T) {
	if got := paint(analyzer.SeverityHigh, "HIGH", false); got != "HIGH" {
		t.Errorf("paint off = %q", got)
	}
	got := paint(analyzer.SeverityHigh, "HIGH", true)
	if !strings.HasPrefix(got, colorRed) || !strings.HasSuffix(got, colorReset) {
		t.Errorf("paint on = %q", got)
	}
}

func TestUseColor(t *testing.T) {
	if useColor(&bytes.Buffer{}) {
		t.Error("buffers are never terminals")
	}
	t.Setenv("NO_COLOR", "1")
	if useColor(os.Stdout) {
		t.Error("NO_COLOR should disable color")
	}
}

func TestWriteExtract_Text(t *testing.T) {
	res := sqldump.Extract("INSERT INTO artists (id, name) VALUES (1, 'A'), (2), (3, 'C');")
	rep := NewExtractReport(Metadata{Command: "extract"}, res, []string{"out/artists_data.csv"})
	rep.SQLFile = "out/create_insert_statements.sql"

	var buf bytes.Buffer
	if err := WriteExtract(&buf, &rep, FormatText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Saved SQL to out/create_insert_statements.sql",
		"Table artists: 2 rows, 2 columns, 1 malformed rows dropped -> out/artists_data.csv",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestWriteExtract_SkippedStatements(t *testing.T) {
	res := sqldump.Extract("INSERT INTO a (x) VALUES (1);\nINSERT INTO b (x) VALUES ('open);")
	rep := NewExtractReport(Metadata{}, res, nil)

	var buf bytes.Buffer
	if err := WriteExtract(&buf, &rep, FormatText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Skipped 1 incomplete INSERT statements") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestWriteExtract_NoInserts(t *testing.T) {
	rep := NewExtractReport(Metadata{}, sqldump.Extract("CREATE TABLE t (a INT);"), nil)
	var buf bytes.Buffer
	if err := WriteExtract(&buf, &rep, FormatText); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "No INSERT INTO statements found in the SQL output.\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestWriteExtract_JSON(t *testing.T) {
	res := sqldump.Extract("INSERT INTO t (a) VALUES (1);")
	rep := NewExtractReport(Metadata{}, res, nil)

	var buf bytes.Buffer
	if err := WriteExtract(&buf, &rep, FormatSARIF); err != nil {
		t.Fatal(err)
	}
	var decoded ExtractReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(decoded.Tables) != 1 || decoded.Tables[0].Rows != 1 {
		t.Errorf("tables = %+v", decoded.Tables)
	}
}
