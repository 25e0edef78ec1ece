// Package postgres writes extracted tables into PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ppiankov/csvspectre/internal/store"
)

func init() {
	store.Register("postgres", func(ctx context.Context, cfg store.Config) (store.Sink, error) {
		return Connect(ctx, cfg)
	})
}

// Sink loads tables through a pgx connection pool.
type Sink struct {
	pool   *pgxpool.Pool
	schema string
}

// Connect opens a pool to cfg.DSN, retrying transient failures.
func Connect(ctx context.Context, cfg store.Config) (*Sink, error) {
	return connectWithRetry(ctx, cfg)
}

func connectOnce(ctx context.Context, cfg store.Config) (*Sink, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	sink := &Sink{pool: pool, schema: cfg.Schema}
	if version, err := sink.ServerVersion(ctx); err == nil {
		slog.Debug("store connected", "backend", "postgres", "server_version", version, "schema", cfg.Schema)
	}
	return sink, nil
}

// Close releases the connection pool.
func (s *Sink) Close() {
	s.pool.Close()
}

// ServerVersion returns the PostgreSQL server version string.
func (s *Sink) ServerVersion(ctx context.Context) (string, error) {
	var version string
	if err := s.pool.QueryRow(ctx, "SHOW server_version").Scan(&version); err != nil {
		return "", fmt.Errorf("server version: %w", err)
	}
	return version, nil
}

// WriteTable creates the table if needed and copies the rows in one transaction.
func (s *Sink) WriteTable(ctx context.Context, t store.Table) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if s.schema != "" {
		if _, err := tx.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{s.schema}.Sanitize()); err != nil {
			return 0, fmt.Errorf("create schema %s: %w", s.schema, err)
		}
	}

	ident := s.identifier(t.Name)
	if _, err := tx.Exec(ctx, createTableSQL(ident, t.Columns)); err != nil {
		return 0, fmt.Errorf("create table %s: %w", t.Name, err)
	}

	rows := make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = store.Args(row)
	}

	n, err := tx.CopyFrom(ctx, ident, t.Columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", t.Name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	slog.Debug("table stored", "backend", "postgres", "table", ident.Sanitize(), "rows", n)
	return n, nil
}

func (s *Sink) identifier(table string) pgx.Identifier {
	if s.schema == "" {
		return pgx.Identifier{table}
	}
	return pgx.Identifier{s.schema, table}
}

func createTableSQL(ident pgx.Identifier, columns []string) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = pgx.Identifier{c}.Sanitize() + " TEXT"
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", ident.Sanitize(), strings.Join(defs, ", "))
}
