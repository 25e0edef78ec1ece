package baseline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/csvspectre/internal/analyzer"
)

func TestFingerprint_Stable(t *testing.T) {
	f := analyzer.Finding{Type: analyzer.FindingMissingValues, Dataset: "people.csv", Column: "born"}
	fp1 := Fingerprint(&f)
	fp2 := Fingerprint(&f)
	if fp1 != fp2 {
		t.Errorf("fingerprint not stable: %q != %q", fp1, fp2)
	}
}

func TestFingerprint_Distinct(t *testing.T) {
	f1 := analyzer.Finding{Type: analyzer.FindingMissingValues, Dataset: "people.csv", Column: "born"}
	f2 := analyzer.Finding{Type: analyzer.FindingMissingValues, Dataset: "pets.csv", Column: "born"}
	if Fingerprint(&f1) == Fingerprint(&f2) {
		t.Error("different files should have different fingerprints")
	}
}

func TestFingerprint_IncludesColumnAndType(t *testing.T) {
	f1 := analyzer.Finding{Type: analyzer.FindingMissingValues, Dataset: "people.csv", Column: "name"}
	f2 := analyzer.Finding{Type: analyzer.FindingMissingValues, Dataset: "people.csv", Column: "email"}
	f3 := analyzer.Finding{Type: analyzer.FindingSuspiciousValue, Dataset: "people.csv", Column: "name"}
	if Fingerprint(&f1) == Fingerprint(&f2) {
		t.Error("findings with different columns should have different fingerprints")
	}
	if Fingerprint(&f1) == Fingerprint(&f3) {
		t.Error("findings with different types should have different fingerprints")
	}
}

func TestFingerprint_IgnoresDetail(t *testing.T) {
	f1 := analyzer.Finding{Type: analyzer.FindingNumericOutlier, Dataset: "a.csv", Column: "v", Detail: map[string]string{"values": `"100"`}}
	f2 := analyzer.Finding{Type: analyzer.FindingNumericOutlier, Dataset: "A.CSV", Column: "v", Detail: map[string]string{"values": `"250"`}}
	if Fingerprint(&f1) != Fingerprint(&f2) {
		t.Error("detail values and file name case should not change the fingerprint")
	}
}

func TestLoad_NoFile(t *testing.T) {
	b, err := Load("/nonexistent/path.json")
	if err != nil {
		t.Fatal(err)
	}
	if b.Len() != 0 {
		t.Errorf("expected empty baseline, got %d fingerprints", b.Len())
	}
}

func TestLoad_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "baseline.json")

	findings := []analyzer.Finding{
		{Type: analyzer.FindingMissingValues, Dataset: "people.csv", Column: "born"},
		{Type: analyzer.FindingLoadFailure, Dataset: "broken.csv"},
	}

	if err := Save(path, findings); err != nil {
		t.Fatal(err)
	}

	b, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if b.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", b.Len())
	}

	if !b.Contains(&findings[0]) {
		t.Error("baseline should contain first finding")
	}
	if !b.Contains(&findings[1]) {
		t.Error("baseline should contain second finding")
	}

	newFinding := analyzer.Finding{Type: analyzer.FindingMissingValues, Dataset: "people.csv", Column: "city"}
	if b.Contains(&newFinding) {
		t.Error("baseline should not contain new finding")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestSave_Deduplicate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "baseline.json")

	findings := []analyzer.Finding{
		{Type: analyzer.FindingNumericOutlier, Dataset: "a.csv", Column: "v", Detail: map[string]string{"values": `"1"`}},
		{Type: analyzer.FindingNumericOutlier, Dataset: "a.csv", Column: "v", Detail: map[string]string{"values": `"2"`}},
	}

	if err := Save(path, findings); err != nil {
		t.Fatal(err)
	}

	b, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if b.Len() != 1 {
		t.Errorf("expected 1 unique entry, got %d", b.Len())
	}
}

func TestSave_UnwritablePath(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "missing", "baseline.json"), nil)
	if err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestFilter(t *testing.T) {
	findings := []analyzer.Finding{
		{Type: analyzer.FindingMissingValues, Dataset: "people.csv", Column: "born"},
		{Type: analyzer.FindingMissingValues, Dataset: "people.csv", Column: "city"},
		{Type: analyzer.FindingSuspiciousValue, Dataset: "people.csv", Column: "city"},
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "baseline.json")
	if err := Save(path, findings[:1]); err != nil {
		t.Fatal(err)
	}
	b, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	filtered, suppressed := b.Filter(findings)
	if suppressed != 1 {
		t.Errorf("expected 1 suppressed, got %d", suppressed)
	}
	if len(filtered) != 2 {
		t.Errorf("expected 2 remaining findings, got %d", len(filtered))
	}
}

func TestFilter_EmptyBaseline(t *testing.T) {
	b := &Baseline{entries: make(map[string]Entry)}
	findings := []analyzer.Finding{
		{Type: analyzer.FindingMissingValues, Dataset: "people.csv", Column: "born"},
	}

	filtered, suppressed := b.Filter(findings)
	if suppressed != 0 {
		t.Errorf("expected 0 suppressed, got %d", suppressed)
	}
	if len(filtered) != 1 {
		t.Errorf("expected 1 finding, got %d", len(filtered))
	}
}

func TestSave_FileLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	findings := []analyzer.Finding{
		{Type: analyzer.FindingSuspiciousValue, Dataset: "people.csv", Column: "city"},
		{Type: analyzer.FindingLoadFailure, Dataset: "broken.csv"},
		{Type: analyzer.FindingMissingValues, Dataset: "people.csv", Column: "born"},
	}
	if err := Save(path, findings); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatal(err)
	}
	if f.Version != FormatVersion || f.Tool != "csvspectre" || f.Created == "" {
		t.Errorf("header = %+v", f)
	}
	var order []string
	for _, e := range f.Entries {
		order = append(order, e.Dataset+"."+e.Column)
	}
	want := []string{"broken.csv.", "people.csv.born", "people.csv.city"}
	if len(order) != len(want) {
		t.Fatalf("entries = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("entry %d = %q, want %q", i, order[i], want[i])
		}
	}
	if f.Entries[0].Fingerprint != Fingerprint(&findings[1]) {
		t.Error("entry fingerprint should match the finding")
	}
}

func TestLoad_NewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	if err := os.WriteFile(path, []byte(`{"version": 99, "entries": []}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for a newer format version")
	}
}

func TestResolved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	old := []analyzer.Finding{
		{Type: analyzer.FindingMissingValues, Dataset: "people.csv", Column: "born"},
		{Type: analyzer.FindingNumericOutlier, Dataset: "people.csv", Column: "age"},
	}
	if err := Save(path, old); err != nil {
		t.Fatal(err)
	}
	b, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	resolved := b.Resolved(old[1:])
	if len(resolved) != 1 {
		t.Fatalf("resolved = %+v, want one entry", resolved)
	}
	if resolved[0].Type != string(analyzer.FindingMissingValues) || resolved[0].Column != "born" {
		t.Errorf("resolved = %+v", resolved[0])
	}

	if got := b.Resolved(old); len(got) != 0 {
		t.Errorf("nothing should be resolved, got %+v", got)
	}
}
