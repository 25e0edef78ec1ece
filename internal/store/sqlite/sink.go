// Package sqlite writes extracted tables into a SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/csvspectre/internal/store"
)

// maxParams keeps multi-row inserts under SQLite's host parameter limit.
const maxParams = 999

func init() {
	store.Register("sqlite", func(ctx context.Context, cfg store.Config) (store.Sink, error) {
		return Open(ctx, cfg.DSN)
	})
}

// Sink loads tables through database/sql.
type Sink struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dsn and verifies it.
func Open(ctx context.Context, dsn string) (*Sink, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &Sink{db: db}, nil
}

// Close closes the database.
func (s *Sink) Close() { _ = s.db.Close() }

// DB exposes the handle for callers that want to read back what was stored.
func (s *Sink) DB() *sql.DB { return s.db }

// WriteTable creates the table if needed and inserts the rows in one transaction.
func (s *Sink) WriteTable(ctx context.Context, t store.Table) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, createTableSQL(t.Name, t.Columns)); err != nil {
		return 0, fmt.Errorf("create table %s: %w", t.Name, err)
	}

	var total int64
	batch := max(1, maxParams/len(t.Columns))
	for start := 0; start < len(t.Rows); start += batch {
		end := min(start+batch, len(t.Rows))
		query, args := buildInsertSQL(t.Name, t.Columns, t.Rows[start:end])

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("insert into %s: %w", t.Name, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	slog.Debug("table stored", "backend", "sqlite", "table", t.Name, "rows", total)
	return total, nil
}

func sqlIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func createTableSQL(table string, columns []string) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = sqlIdent(c) + " TEXT"
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", sqlIdent(table), strings.Join(defs, ", "))
}

func buildInsertSQL(table string, columns []string, rows [][]string) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(sqlIdent(table))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(sqlIdent(c))
	}
	b.WriteString(") VALUES ")

	placeholder := "(" + strings.TrimRight(strings.Repeat("?,", len(columns)), ",") + ")"
	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(placeholder)
		args = append(args, store.Args(row)...)
	}
	return b.String(), args
}
