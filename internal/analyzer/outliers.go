package analyzer

import (
	"math"
	"sort"

	"github.com/ppiankov/csvspectre/internal/dataset"
)

// quantile estimates the p-quantile of sorted values by linear interpolation
// between the closest ranks at position (n-1)*p.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

// iqrBounds returns [Q1 - k*IQR, Q3 + k*IQR]. A constant column collapses the
// bounds to a single point; that is left as is.
func iqrBounds(values []float64, k float64) (lower, upper float64, ok bool) {
	if len(values) == 0 {
		return 0, 0, false
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	return q1 - k*iqr, q3 + k*iqr, true
}

// numericOutliers returns, in row order, the raw text of every value strictly
// outside the IQR bounds.
func numericOutliers(col *dataset.Column, k float64) []string {
	values := make([]float64, 0, len(col.Cells))
	for _, c := range col.Cells {
		if c.Kind == dataset.CellNumber {
			values = append(values, c.Num)
		}
	}

	lower, upper, ok := iqrBounds(values, k)
	if !ok {
		return nil
	}

	var out []string
	for _, c := range col.Cells {
		if c.Kind != dataset.CellNumber {
			continue
		}
		if c.Num < lower || c.Num > upper {
			out = append(out, c.Raw)
		}
	}
	return out
}

// dateOutliers parses every cell of a text column and returns the dates that
// fall strictly outside [min, max], formatted YYYY-MM-DD. ok is false when no
// cell parsed at all, meaning the column is not a date column.
func dateOutliers(col *dataset.Column, opts Options) (out []string, ok bool) {
	for _, c := range col.Cells {
		if c.Missing() {
			continue
		}
		pd := ParseDate(c.Raw, opts.DateFormats)
		if pd.Status != DateParsed {
			continue
		}
		ok = true
		if pd.Time.Before(opts.DateMin) || pd.Time.After(opts.DateMax) {
			out = append(out, pd.Time.Format("2006-01-02"))
		}
	}
	return out, ok
}
