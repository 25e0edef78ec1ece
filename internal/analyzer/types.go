package analyzer

import "time"

// Severity indicates the risk level of a finding.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
	SeverityInfo   Severity = "info"
)

// FindingType identifies what kind of issue was detected.
type FindingType string

const (
	FindingMissingValues   FindingType = "MISSING_VALUES"
	FindingNumericOutlier  FindingType = "NUMERIC_OUTLIER"
	FindingDateOutlier     FindingType = "DATE_OUTLIER"
	FindingSuspiciousValue FindingType = "SUSPICIOUS_VALUE"
	FindingLoadFailure     FindingType = "LOAD_FAILURE"
)

// Finding is a single defect in one column of one dataset.
type Finding struct {
	Type     FindingType       `json:"type"`
	Severity Severity          `json:"severity"`
	Dataset  string            `json:"dataset"`
	Column   string            `json:"column,omitempty"`
	Message  string            `json:"message"`
	Detail   map[string]string `json:"detail,omitempty"`
}

// Options holds the detection thresholds. The analyzer never reads global state.
type Options struct {
	IQRMultiplier float64
	DateMin       time.Time
	DateMax       time.Time
	Sentinels     []string
	DateFormats   []DateStrategy
}

// DefaultOptions returns the thresholds matching the config defaults.
func DefaultOptions() Options {
	return Options{
		IQRMultiplier: 1.5,
		DateMin:       time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC),
		DateMax:       time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC),
		Sentinels:     []string{"Unknown", "unknown", "XX", "NULL", "null"},
		DateFormats:   DefaultDateStrategies(),
	}
}

var severityOrder = map[Severity]int{
	SeverityInfo:   0,
	SeverityLow:    1,
	SeverityMedium: 2,
	SeverityHigh:   3,
}

// MaxSeverity returns the highest severity among findings.
func MaxSeverity(findings []Finding) Severity {
	max := SeverityInfo
	for _, f := range findings {
		if severityOrder[f.Severity] > severityOrder[max] {
			max = f.Severity
		}
	}
	return max
}

// ExitCode maps severity to a CLI exit code.
func ExitCode(s Severity) int {
	switch s {
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}
