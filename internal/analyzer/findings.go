package analyzer

import (
	"fmt"
	"strconv"
	"strings"
)

// Findings flattens batch results into one finding per defect kind and column,
// in file order and then column order.
func Findings(results []FileResult) []Finding {
	var findings []Finding
	for i := range results {
		findings = append(findings, fileFindings(&results[i])...)
	}
	return findings
}

func fileFindings(fr *FileResult) []Finding {
	if fr.Failed() {
		return []Finding{{
			Type:     FindingLoadFailure,
			Severity: SeverityHigh,
			Dataset:  fr.File,
			Message:  fr.Error,
		}}
	}
	if fr.Report == nil {
		return nil
	}

	r := fr.Report
	var findings []Finding
	for _, col := range r.Columns {
		if n := r.Missing[col]; n > 0 {
			findings = append(findings, Finding{
				Type:     FindingMissingValues,
				Severity: SeverityLow,
				Dataset:  fr.File,
				Column:   col,
				Message:  fmt.Sprintf("%d of %d values missing", n, r.RowCount),
				Detail:   map[string]string{"count": strconv.Itoa(n)},
			})
		}
		if vals := r.Outliers[col]; len(vals) > 0 {
			findings = append(findings, Finding{
				Type:     outlierType(r, col),
				Severity: SeverityMedium,
				Dataset:  fr.File,
				Column:   col,
				Message:  fmt.Sprintf("%d outlier value(s)", len(vals)),
				Detail:   map[string]string{"values": joinValues(vals)},
			})
		}
		if vals := r.Suspicious[col]; len(vals) > 0 {
			findings = append(findings, Finding{
				Type:     FindingSuspiciousValue,
				Severity: SeverityLow,
				Dataset:  fr.File,
				Column:   col,
				Message:  fmt.Sprintf("placeholder value(s) %s", joinValues(vals)),
				Detail:   map[string]string{"values": joinValues(vals)},
			})
		}
	}
	return findings
}

func outlierType(r *QualityReport, col string) FindingType {
	if r.OutlierRules[col] == RuleDate {
		return FindingDateOutlier
	}
	return FindingNumericOutlier
}

func joinValues(vals []string) string {
	quoted := make([]string, len(vals))
	for i, v := range vals {
		quoted[i] = strconv.Quote(v)
	}
	return strings.Join(quoted, ", ")
}
