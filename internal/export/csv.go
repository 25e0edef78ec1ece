// Package export writes extracted tables, merged datasets and raw SQL to disk.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/csvspectre/internal/dataset"
	"github.com/ppiankov/csvspectre/internal/sqldump"
)

// SQLFileName is where SaveSQL writes the raw SQL text.
const SQLFileName = "create_insert_statements.sql"

// TableFileName is the CSV file name for an extracted table.
func TableFileName(table string) string {
	return strings.ToLower(table) + "_data.csv"
}

// WriteTableCSV writes the table's header and rows to <dir>/<lower(name)>_data.csv
// and returns the path written.
func WriteTableCSV(dir string, t *sqldump.TableExtract) (string, error) {
	path := filepath.Join(dir, TableFileName(t.Name))
	if err := writeRecords(path, t.Records()); err != nil {
		return "", fmt.Errorf("write table %s: %w", t.Name, err)
	}
	return path, nil
}

// WriteTables writes every table of an extraction and returns the paths in
// table order.
func WriteTables(dir string, res sqldump.Result) ([]string, error) {
	paths := make([]string, 0, len(res.Tables))
	for i := range res.Tables {
		p, err := WriteTableCSV(dir, &res.Tables[i])
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// WriteDataset writes any materialized table to path, header first. Missing
// cells are written as empty fields.
func WriteDataset(path string, src dataset.Source) error {
	ds := src.Table()
	if ds == nil {
		return fmt.Errorf("write %s: no table", path)
	}

	records := make([][]string, 0, ds.RowCount()+1)
	records = append(records, ds.ColumnNames())
	records = append(records, ds.Records()...)

	if err := writeRecords(path, records); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// SaveSQL writes the raw SQL text to <dir>/create_insert_statements.sql.
func SaveSQL(dir, text string) (string, error) {
	path := filepath.Join(dir, SQLFileName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("save sql: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("save sql: %w", err)
	}
	return path, nil
}

func writeRecords(path string, records [][]string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return err
	}
	return w.Error()
}
