package suppress

import (
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/ppiankov/csvspectre/internal/analyzer"
)

// IgnoreFileName is looked up in the working directory.
const IgnoreFileName = ".csvspectre-ignore.yml"

// Suppression is a single rule in the ignore file. Dataset is required and
// may end in '*'; Column and Type narrow the rule when set.
type Suppression struct {
	Dataset string `yaml:"dataset"`
	Column  string `yaml:"column,omitempty"`
	Type    string `yaml:"type,omitempty"`
	Reason  string `yaml:"reason,omitempty"`
}

// IgnoreFile is the structure of .csvspectre-ignore.yml.
type IgnoreFile struct {
	Suppressions []Suppression `yaml:"suppressions"`
}

// Rules holds loaded suppression rules from all sources.
type Rules struct {
	ignoreFile IgnoreFile
	// Finding types from config exclude.findings
	configFindings []string
	// Column names from config exclude.columns, any file
	configColumns []string
}

// LoadRules loads suppression rules from .csvspectre-ignore.yml in the given directory.
func LoadRules(dir string) (*Rules, error) {
	r := &Rules{}

	path := filepath.Join(dir, IgnoreFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, &r.ignoreFile); err != nil {
		return nil, err
	}
	return r, nil
}

// WithConfigFindings adds finding-type suppressions from config.
func (r *Rules) WithConfigFindings(findings []string) {
	r.configFindings = findings
}

// WithConfigColumns adds column-name suppressions from config.
func (r *Rules) WithConfigColumns(columns []string) {
	r.configColumns = columns
}

func (r *Rules) empty() bool {
	return len(r.ignoreFile.Suppressions) == 0 && len(r.configFindings) == 0 && len(r.configColumns) == 0
}

// IsSuppressed returns true if the finding should be suppressed.
func (r *Rules) IsSuppressed(f *analyzer.Finding) bool {
	for _, ft := range r.configFindings {
		if strings.EqualFold(string(f.Type), ft) {
			return true
		}
	}

	if f.Column != "" {
		for _, c := range r.configColumns {
			if match(c, f.Column) {
				return true
			}
		}
	}

	for _, s := range r.ignoreFile.Suppressions {
		if !match(s.Dataset, f.Dataset) {
			continue
		}
		if s.Column != "" && !match(s.Column, f.Column) {
			continue
		}
		if s.Type == "" || strings.EqualFold(s.Type, string(f.Type)) {
			return true
		}
	}

	return false
}

// Filter removes suppressed findings and returns the remaining ones.
// Returns the filtered list and the number of suppressed findings.
func (r *Rules) Filter(findings []analyzer.Finding) ([]analyzer.Finding, int) {
	if r.empty() {
		return findings, 0
	}

	var filtered []analyzer.Finding
	suppressed := 0
	for i := range findings {
		if r.IsSuppressed(&findings[i]) {
			suppressed++
		} else {
			filtered = append(filtered, findings[i])
		}
	}
	return filtered, suppressed
}

// match compares a name against a pattern that supports a trailing wildcard,
// ignoring case.
func match(pattern, name string) bool {
	pattern = strings.ToLower(pattern)
	name = strings.ToLower(name)

	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(name, strings.TrimSuffix(pattern, "*"))
	}
	return pattern == name
}
