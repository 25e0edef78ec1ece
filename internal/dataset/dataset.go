package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrShape is returned when a table violates the column invariants.
var ErrShape = errors.New("invalid dataset shape")

// CellKind classifies a single cell value.
type CellKind int

const (
	CellMissing CellKind = iota
	CellNumber
	CellText
)

// Cell is one value of a column. Raw keeps the (trimmed) source text.
type Cell struct {
	Kind CellKind
	Raw  string
	Num  float64
}

// Missing reports whether the cell holds the missing-value marker.
func (c Cell) Missing() bool { return c.Kind == CellMissing }

// Kind is the inferred type of a whole column.
type Kind string

const (
	KindNumeric Kind = "numeric"
	KindText    Kind = "text"
)

// Column is a named, typed sequence of cells.
type Column struct {
	Name  string
	Kind  Kind
	Cells []Cell
}

// Dataset is an ordered set of equal-length columns with unique names.
type Dataset struct {
	Name    string
	Columns []Column
}

// Source hands over the current materialized table of a component.
type Source interface {
	Table() *Dataset
}

// Table returns the dataset itself.
func (d *Dataset) Table() *Dataset { return d }

// RowCount returns the number of rows.
func (d *Dataset) RowCount() int {
	if len(d.Columns) == 0 {
		return 0
	}
	return len(d.Columns[0].Cells)
}

// ColumnCount returns the number of columns.
func (d *Dataset) ColumnCount() int { return len(d.Columns) }

// ColumnNames returns column names in declaration order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i := range d.Columns {
		names[i] = d.Columns[i].Name
	}
	return names
}

// Column looks up a column by exact name.
func (d *Dataset) Column(name string) (*Column, bool) {
	for i := range d.Columns {
		if d.Columns[i].Name == name {
			return &d.Columns[i], true
		}
	}
	return nil, false
}

// Records returns the rows as raw strings; missing cells render as "".
func (d *Dataset) Records() [][]string {
	rows := make([][]string, d.RowCount())
	for r := range rows {
		row := make([]string, len(d.Columns))
		for c := range d.Columns {
			cell := d.Columns[c].Cells[r]
			if !cell.Missing() {
				row[c] = cell.Raw
			}
		}
		rows[r] = row
	}
	return rows
}

// Validate checks that column names are unique and all columns have the same length.
func (d *Dataset) Validate() error {
	seen := make(map[string]bool, len(d.Columns))
	n := d.RowCount()
	for _, c := range d.Columns {
		if seen[c.Name] {
			return fmt.Errorf("%w: duplicate column %q", ErrShape, c.Name)
		}
		seen[c.Name] = true
		if len(c.Cells) != n {
			return fmt.Errorf("%w: column %q has %d cells, want %d", ErrShape, c.Name, len(c.Cells), n)
		}
	}
	return nil
}

// New builds a dataset from a header row and data records, inferring column kinds.
// Short records are padded with missing cells; long records are rejected.
func New(name string, header []string, records [][]string, opts LoadOptions) (*Dataset, error) {
	missing := opts.missingSet()

	ds := &Dataset{Name: name, Columns: make([]Column, len(header))}
	for i, h := range header {
		ds.Columns[i] = Column{Name: h, Cells: make([]Cell, len(records))}
	}

	for r, rec := range records {
		if len(rec) > len(header) {
			return nil, fmt.Errorf("%w: row %d has %d fields, header has %d", ErrShape, r+1, len(rec), len(header))
		}
		for c := range header {
			if c >= len(rec) {
				ds.Columns[c].Cells[r] = Cell{Kind: CellMissing}
				continue
			}
			v := rec[c]
			if opts.TrimSpace {
				v = strings.TrimSpace(v)
			}
			if missing[v] {
				ds.Columns[c].Cells[r] = Cell{Kind: CellMissing, Raw: v}
				continue
			}
			ds.Columns[c].Cells[r] = Cell{Kind: CellText, Raw: v}
		}
	}

	for i := range ds.Columns {
		inferKind(&ds.Columns[i])
	}

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// inferKind marks a column numeric when every non-missing cell is a finite number.
// An all-missing column counts as numeric.
func inferKind(col *Column) {
	nums := make([]float64, len(col.Cells))
	for i, cell := range col.Cells {
		if cell.Missing() {
			continue
		}
		f, ok := parseNumber(cell.Raw)
		if !ok {
			col.Kind = KindText
			return
		}
		nums[i] = f
	}

	col.Kind = KindNumeric
	for i := range col.Cells {
		if col.Cells[i].Missing() {
			continue
		}
		col.Cells[i].Kind = CellNumber
		col.Cells[i].Num = nums[i]
	}
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
