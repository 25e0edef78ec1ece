// Package sqldump recovers tabular data from INSERT INTO statements in
// free-form SQL text, such as a dump produced by a language model.
package sqldump

import (
	"log/slog"
	"slices"
	"strings"
)

// TableExtract holds the data recovered for one table.
type TableExtract struct {
	Name          string     `json:"name"`
	Columns       []string   `json:"columns"`
	Rows          [][]string `json:"rows"`
	Dropped       int        `json:"dropped_rows"`
	Statements    int        `json:"statements"`
	SchemaChanges int        `json:"schema_changes,omitempty"`
}

// Key is the case-insensitive identity of the table.
func (t *TableExtract) Key() string { return strings.ToLower(t.Name) }

// Records returns the header followed by the data rows.
func (t *TableExtract) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, t.Columns)
	return append(out, t.Rows...)
}

// Result is the outcome of one extraction, tables in order of first appearance.
type Result struct {
	Tables []TableExtract `json:"tables"`
	// Skipped counts statements that reached VALUES but were cut off or left
	// a literal unclosed. None of their rows are kept.
	Skipped int `json:"skipped_statements,omitempty"`
}

// Empty reports that no INSERT statement was found.
func (r Result) Empty() bool { return len(r.Tables) == 0 }

// Table looks a table up by name, ignoring case.
func (r Result) Table(name string) (*TableExtract, bool) {
	key := strings.ToLower(name)
	for i := range r.Tables {
		if r.Tables[i].Key() == key {
			return &r.Tables[i], true
		}
	}
	return nil, false
}

// Dropped is the number of malformed rows rejected across all tables.
func (r Result) Dropped() int {
	n := 0
	for _, t := range r.Tables {
		n += t.Dropped
	}
	return n
}

// Extract collects the rows of every well-formed INSERT INTO statement in
// text. Statements for the same table accumulate. A row whose value count
// differs from its column list is dropped and counted. Extract never fails;
// text without inserts yields an empty Result.
//
// When a later statement for a table names a different column list, the
// rows already collected are realigned to the new list by column name rather
// than kept under the old header. Values in columns the new list lacks are
// discarded, and the change is counted in SchemaChanges.
func Extract(text string) Result {
	var res Result
	index := make(map[string]int)

	statements, broken := scanStatements(text)
	for _, table := range broken {
		slog.Warn("incomplete INSERT statement skipped", "table", table)
	}
	res.Skipped = len(broken)

	for _, st := range statements {
		key := strings.ToLower(st.table)
		i, seen := index[key]
		if !seen {
			i = len(res.Tables)
			index[key] = i
			res.Tables = append(res.Tables, TableExtract{Name: st.table, Columns: st.columns})
		}
		t := &res.Tables[i]

		if seen && !slices.Equal(t.Columns, st.columns) {
			slog.Warn("column list changed", "table", t.Name,
				"from", strings.Join(t.Columns, ","),
				"to", strings.Join(st.columns, ","))
			t.Rows = realign(t.Rows, t.Columns, st.columns)
			t.Columns = st.columns
			t.SchemaChanges++
		}
		t.Statements++

		for _, raw := range st.rows {
			vals := splitValues(raw)
			if len(vals) != len(t.Columns) {
				t.Dropped++
				slog.Debug("row dropped", "table", t.Name, "values", len(vals), "columns", len(t.Columns))
				continue
			}
			t.Rows = append(t.Rows, vals)
		}
	}

	for _, t := range res.Tables {
		slog.Debug("table extracted", "table", t.Name, "rows", len(t.Rows), "dropped", t.Dropped)
	}
	return res
}

// realign maps rows written under one column list onto another by column
// name. Columns absent from the old list are left empty.
func realign(rows [][]string, from, to []string) [][]string {
	pos := make(map[string]int, len(from))
	for i, name := range from {
		if _, dup := pos[name]; !dup {
			pos[name] = i
		}
	}

	out := make([][]string, len(rows))
	for r, row := range rows {
		next := make([]string, len(to))
		for j, name := range to {
			if k, ok := pos[name]; ok {
				next[j] = row[k]
			}
		}
		out[r] = next
	}
	return out
}
