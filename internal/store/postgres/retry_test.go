package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ppiankov/csvspectre/internal/store"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"i/o timeout", errors.New("dial tcp: i/o timeout"), true},
		{"deadline", fmt.Errorf("copy rows: %w", context.DeadlineExceeded), true},
		{"net op error", &net.OpError{Op: "dial", Err: errors.New("unreachable")}, true},
		{"too many connections", &pgconn.PgError{Code: "53300"}, true},
		{"unknown", errors.New("something unexpected"), true},
		{"bad password", &pgconn.PgError{Code: "28P01"}, false},
		{"bad password text", errors.New(`password authentication failed for user "loader"`), false},
		{"wrapped role", fmt.Errorf("connect: %w", &pgconn.PgError{Code: "28000"}), false},
		{"missing database", &pgconn.PgError{Code: "3D000"}, false},
		{"pg_hba", errors.New("no pg_hba.conf entry for host"), false},
		{"no such host", errors.New("lookup warehouse: no such host"), false},
		{"parse config", pgconn.NewParseConfigError("not-a-url", "failed to parse as keyword/value", errors.New("invalid keyword/value")), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err); got != tt.want {
				t.Errorf("isRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestBackoffDelay(t *testing.T) {
	for attempt, base := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second} {
		d := backoffDelay(attempt)
		if d < base || d >= base+maxJitter {
			t.Errorf("backoffDelay(%d) = %v, want [%v, %v)", attempt, d, base, base+maxJitter)
		}
	}
}

func TestConnect_RegisteredAsBackend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Open(ctx, store.Config{Backend: "postgres", DSN: "postgres://localhost:1/test"})
	if err == nil {
		t.Fatal("expected error with canceled context")
	}
	if errors.Is(err, store.ErrUnknownBackend) {
		t.Fatal("postgres backend should be registered")
	}
}

func TestCreateTableSQL(t *testing.T) {
	s := &Sink{schema: "staging"}
	got := createTableSQL(s.identifier("artists"), []string{"id", "full name"})
	want := `CREATE TABLE IF NOT EXISTS "staging"."artists" ("id" TEXT, "full name" TEXT)`
	if got != want {
		t.Errorf("createTableSQL() = %s, want %s", got, want)
	}

	s = &Sink{}
	got = createTableSQL(s.identifier(`we"ird`), []string{"a"})
	want = `CREATE TABLE IF NOT EXISTS "we""ird" ("a" TEXT)`
	if got != want {
		t.Errorf("createTableSQL() = %s, want %s", got, want)
	}
}

func TestConnectWithRetry_InvalidHost_Retries(t *testing.T) {
	// Use an invalid URL that will fail with connection refused
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := connectWithRetry(ctx, store.Config{DSN: "postgres://localhost:1/nonexistent"})

	if err == nil {
		t.Fatal("expected error")
	}
}

func TestConnectWithRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := connectWithRetry(ctx, store.Config{DSN: "postgres://localhost:1/test"})
	if err == nil {
		t.Fatal("expected error with canceled context")
	}
}

func TestConnectWithRetry_InvalidURL_FailsFast(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	_, err := connectWithRetry(ctx, store.Config{DSN: "not-a-url"})
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "cannot parse `not-a-url`") {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed >= baseDelay {
		t.Fatalf("expected fail-fast without retry delay, took %v", elapsed)
	}
}
