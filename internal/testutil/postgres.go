package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// ResetSQL drops the objects the store tests create so an external database
// can be reused between runs.
const ResetSQL = `
DROP SCHEMA IF EXISTS staging CASCADE;
DROP TABLE IF EXISTS artists;
DROP TABLE IF EXISTS albums;
`

const testDBEnv = "CSVSPECTRE_TEST_DB_URL"

// runPostgresContainer starts a PG container, recovering from panics if Docker is unavailable.
func runPostgresContainer(ctx context.Context) (container *postgres.PostgresContainer, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
	)
}

func resetDatabase(ctx context.Context, connStr string) error {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return fmt.Errorf("reset connect: %w", err)
	}
	if _, err := conn.Exec(ctx, ResetSQL); err != nil {
		_ = conn.Close(ctx)
		return fmt.Errorf("reset: %w", err)
	}
	return conn.Close(ctx)
}

// Setup starts a PostgreSQL container and returns the connection string and
// a cleanup function. If CSVSPECTRE_TEST_DB_URL is set, that database is
// reset and used instead of Docker. Returns an error if Docker is not available.
func Setup() (string, func(), error) {
	ctx := context.Background()

	if connStr := os.Getenv(testDBEnv); connStr != "" {
		if err := resetDatabase(ctx, connStr); err != nil {
			return "", nil, fmt.Errorf("reset %s: %w", testDBEnv, err)
		}
		return connStr, func() {}, nil
	}

	container, err := runPostgresContainer(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("docker not available: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return "", nil, fmt.Errorf("connection string: %w", err)
	}

	cleanup := func() {
		_ = container.Terminate(ctx)
	}
	return connStr, cleanup, nil
}

// SetupPostgres is a test helper that starts a PostgreSQL container.
// Skips the test if Docker is not available.
func SetupPostgres(t *testing.T) (string, func()) {
	t.Helper()
	connStr, cleanup, err := Setup()
	if err != nil {
		t.Skipf("skipping: %v", err)
	}
	return connStr, cleanup
}

// QueryStrings returns the rows of a query whose columns all scan into
// nullable text. NULL becomes "".
func QueryStrings(ctx context.Context, t *testing.T, connStr, query string) [][]string {
	t.Helper()
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer func() { _ = conn.Close(ctx) }()

	rows, err := conn.Query(ctx, query)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			t.Fatalf("values: %v", err)
		}
		row := make([]string, len(vals))
		for i, v := range vals {
			if v != nil {
				row[i] = fmt.Sprint(v)
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	return out
}
