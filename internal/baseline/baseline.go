// Package baseline records accepted data defects so later runs only report
// what is new.
package baseline

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/csvspectre/internal/analyzer"
)

// FormatVersion is written into every baseline file.
const FormatVersion = 1

// File is the on-disk layout.
type File struct {
	Version int     `json:"version"`
	Tool    string  `json:"tool"`
	Created string  `json:"created"`
	Entries []Entry `json:"entries"`
}

// Entry is one accepted defect. Matching uses Fingerprint only; the other
// fields are there for whoever reviews the file.
type Entry struct {
	Fingerprint string `json:"fingerprint"`
	Type        string `json:"type"`
	Dataset     string `json:"dataset"`
	Column      string `json:"column,omitempty"`
}

// Baseline is a loaded set of entries keyed by fingerprint.
type Baseline struct {
	entries map[string]Entry
}

// Len is the number of entries.
func (b *Baseline) Len() int { return len(b.entries) }

// Load reads a baseline file. A missing file yields an empty baseline.
func Load(path string) (*Baseline, error) {
	b := &Baseline{entries: make(map[string]Entry)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return b, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read baseline: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse baseline: %w", err)
	}
	if f.Version > FormatVersion {
		return nil, fmt.Errorf("parse baseline: version %d is newer than supported %d", f.Version, FormatVersion)
	}
	for _, e := range f.Entries {
		b.entries[e.Fingerprint] = e
	}
	return b, nil
}

// Save writes one entry per distinct fingerprint, sorted by dataset, column
// and type so the file diffs cleanly.
func Save(path string, findings []analyzer.Finding) error {
	f := File{
		Version: FormatVersion,
		Tool:    "csvspectre",
		Created: time.Now().UTC().Format(time.RFC3339),
		Entries: entriesFor(findings),
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal baseline: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write baseline: %w", err)
	}
	return nil
}

func entriesFor(findings []analyzer.Finding) []Entry {
	seen := make(map[string]bool, len(findings))
	entries := make([]Entry, 0, len(findings))
	for i := range findings {
		fp := Fingerprint(&findings[i])
		if seen[fp] {
			continue
		}
		seen[fp] = true
		entries = append(entries, Entry{
			Fingerprint: fp,
			Type:        string(findings[i].Type),
			Dataset:     findings[i].Dataset,
			Column:      findings[i].Column,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Dataset != b.Dataset {
			return a.Dataset < b.Dataset
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.Type < b.Type
	})
	return entries
}

// Contains reports whether the finding was accepted.
func (b *Baseline) Contains(f *analyzer.Finding) bool {
	_, ok := b.entries[Fingerprint(f)]
	return ok
}

// Filter removes accepted findings. Returns the rest and how many were removed.
func (b *Baseline) Filter(findings []analyzer.Finding) ([]analyzer.Finding, int) {
	if len(b.entries) == 0 {
		return findings, 0
	}

	var kept []analyzer.Finding
	for i := range findings {
		if !b.Contains(&findings[i]) {
			kept = append(kept, findings[i])
		}
	}
	return kept, len(findings) - len(kept)
}

// Resolved returns the entries no current finding matches, i.e. defects that
// have been fixed since the baseline was written.
func (b *Baseline) Resolved(findings []analyzer.Finding) []Entry {
	current := make(map[string]bool, len(findings))
	for i := range findings {
		current[Fingerprint(&findings[i])] = true
	}

	var out []Entry
	for fp, e := range b.entries {
		if !current[fp] {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fingerprint < out[j].Fingerprint })
	return out
}

// Fingerprint identifies a finding by type, file (case-insensitive) and
// column. Detail values do not contribute.
func Fingerprint(f *analyzer.Finding) string {
	key := strings.Join([]string{string(f.Type), strings.ToLower(f.Dataset), f.Column}, "|")
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h[:16])
}
