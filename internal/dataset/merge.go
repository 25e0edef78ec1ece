package dataset

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Merged is the side-by-side concatenation of several datasets.
type Merged struct {
	table   *Dataset
	Sources []string
}

// Table returns the merged table.
func (m *Merged) Table() *Dataset { return m.table }

// Merge places datasets next to each other, prefixing every column with
// "<file stem>__". Shorter datasets are padded with missing cells so all
// columns share the longest row count.
func Merge(name string, sets []*Dataset) (*Merged, error) {
	rows := 0
	for _, ds := range sets {
		if n := ds.RowCount(); n > rows {
			rows = n
		}
	}

	m := &Merged{table: &Dataset{Name: name}}
	for _, ds := range sets {
		prefix := Stem(ds.Name) + "__"
		for _, col := range ds.Columns {
			cells := make([]Cell, rows)
			copy(cells, col.Cells)
			for i := len(col.Cells); i < rows; i++ {
				cells[i] = Cell{Kind: CellMissing}
			}
			m.table.Columns = append(m.table.Columns, Column{
				Name:  prefix + col.Name,
				Kind:  col.Kind,
				Cells: cells,
			})
		}
		m.Sources = append(m.Sources, ds.Name)
	}

	if err := m.table.Validate(); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	return m, nil
}

// Stem returns the file name without directory and extension.
func Stem(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
