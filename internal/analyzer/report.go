package analyzer

import "github.com/ppiankov/csvspectre/internal/dataset"

// QualityReport summarizes the defects of one dataset. It is computed once
// and not modified afterwards.
type QualityReport struct {
	RowCount     int                 `json:"row_count"`
	ColumnCount  int                 `json:"column_count"`
	Columns      []string            `json:"column_names"`
	Missing      map[string]int      `json:"missing_by_column"`
	Outliers     map[string][]string `json:"outliers_by_column"`
	Suspicious   map[string][]string `json:"suspicious_by_column"`
	OutlierRules map[string]string   `json:"outlier_rules,omitempty"` // column -> RuleNumeric or RuleDate
}

// Outlier rules.
const (
	RuleNumeric = "numeric"
	RuleDate    = "date"
)

// Clean reports whether no defect of any kind was found.
func (r *QualityReport) Clean() bool {
	return len(r.Missing) == 0 && len(r.Outliers) == 0 && len(r.Suspicious) == 0
}

// Analyze inspects a dataset and returns its quality report. A nil or
// column-less dataset yields a report with empty collections.
func Analyze(ds *dataset.Dataset, opts Options) QualityReport {
	opts = opts.withDefaults()

	r := QualityReport{
		Columns:      []string{},
		Missing:      map[string]int{},
		Outliers:     map[string][]string{},
		Suspicious:   map[string][]string{},
		OutlierRules: map[string]string{},
	}
	if ds == nil {
		return r
	}

	r.RowCount = ds.RowCount()
	r.ColumnCount = ds.ColumnCount()
	r.Columns = ds.ColumnNames()

	for i := range ds.Columns {
		col := &ds.Columns[i]

		if n := countMissing(col); n > 0 {
			r.Missing[col.Name] = n
		}

		switch col.Kind {
		case dataset.KindNumeric:
			if out := numericOutliers(col, opts.IQRMultiplier); len(out) > 0 {
				r.Outliers[col.Name] = out
				r.OutlierRules[col.Name] = RuleNumeric
			}
		case dataset.KindText:
			if out, ok := dateOutliers(col, opts); ok && len(out) > 0 {
				r.Outliers[col.Name] = out
				r.OutlierRules[col.Name] = RuleDate
			}
			if vals := suspiciousValues(col, opts.Sentinels); len(vals) > 0 {
				r.Suspicious[col.Name] = vals
			}
		}
	}

	return r
}

func countMissing(col *dataset.Column) int {
	n := 0
	for _, c := range col.Cells {
		if c.Missing() {
			n++
		}
	}
	return n
}

// suspiciousValues returns the distinct sentinel values of a column in order
// of first appearance. Missing cells are left to missing-value detection.
func suspiciousValues(col *dataset.Column, sentinels []string) []string {
	set := make(map[string]bool, len(sentinels))
	for _, s := range sentinels {
		set[s] = true
	}

	var out []string
	seen := make(map[string]bool)
	for _, c := range col.Cells {
		if c.Missing() || !set[c.Raw] || seen[c.Raw] {
			continue
		}
		seen[c.Raw] = true
		out = append(out, c.Raw)
	}
	return out
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.IQRMultiplier <= 0 {
		o.IQRMultiplier = def.IQRMultiplier
	}
	if o.DateMin.IsZero() {
		o.DateMin = def.DateMin
	}
	if o.DateMax.IsZero() {
		o.DateMax = def.DateMax
	}
	if o.Sentinels == nil {
		o.Sentinels = def.Sentinels
	}
	if len(o.DateFormats) == 0 {
		o.DateFormats = def.DateFormats
	}
	return o
}
