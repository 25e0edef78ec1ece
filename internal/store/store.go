// Package store persists extracted tables into a relational database.
// Backends register themselves from an init function; callers select one by
// name through Open.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrUnknownBackend is returned by Open for an unregistered backend name.
var ErrUnknownBackend = errors.New("unknown store backend")

// Config selects and addresses a backend.
type Config struct {
	Backend string // registered backend name, e.g. "postgres" or "sqlite"
	DSN     string
	Schema  string // optional target schema where the backend supports one
}

// Table is a named set of text rows. Every row has len(Columns) values.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Sink writes tables. Tables are created when missing; all columns are TEXT.
type Sink interface {
	WriteTable(ctx context.Context, t Table) (int64, error)
	Close()
}

// Factory opens a Sink for cfg.
type Factory func(ctx context.Context, cfg Config) (Sink, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available to Open. It panics on an empty name, a
// nil factory, or a name that is already taken.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if name == "" {
		panic("store: Register called with empty name")
	}
	if f == nil {
		panic("store: Register called with nil factory")
	}
	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("store: backend %q already registered", name))
	}
	factories[name] = f
}

// Open connects to the backend named by cfg.Backend.
func Open(ctx context.Context, cfg Config) (Sink, error) {
	mu.RLock()
	f, ok := factories[cfg.Backend]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownBackend, cfg.Backend, Backends())
	}
	return f(ctx, cfg)
}

// Backends lists registered backend names in sorted order.
func Backends() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Validate checks that the table has a name, at least one column, and rows
// of the right width.
func (t Table) Validate() error {
	if t.Name == "" {
		return errors.New("table name is empty")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s: no columns", t.Name)
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("table %s: row %d has %d values, want %d", t.Name, i, len(row), len(t.Columns))
		}
	}
	return nil
}

// Args converts a row to driver arguments. Empty cells become NULL.
func Args(row []string) []any {
	out := make([]any, len(row))
	for i, v := range row {
		if v != "" {
			out[i] = v
		}
	}
	return out
}
