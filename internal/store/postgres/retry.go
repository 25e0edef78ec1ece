package postgres

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ppiankov/csvspectre/internal/store"
)

const (
	maxRetries = 3
	baseDelay  = 1 * time.Second
	maxJitter  = 500 * time.Millisecond
)

// SQLSTATE codes that no amount of retrying will fix.
var fatalCodes = map[string]bool{
	"28P01": true, // invalid_password
	"28000": true, // invalid_authorization_specification
	"3D000": true, // invalid_catalog_name
}

// Message fragments the driver only reports as text.
var (
	fatalMessages = []string{
		"password authentication failed",
		"no pg_hba.conf entry",
		"no such host",
		"cannot parse",
	}
	transientMessages = []string{
		"connection refused",
		"connection reset",
		"i/o timeout",
	}
)

// connectWithRetry calls connectOnce up to maxRetries times, backing off
// between attempts. Errors that isRetryable rejects are returned at once.
func connectWithRetry(ctx context.Context, cfg store.Config) (*Sink, error) {
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		var sink *Sink
		if sink, err = connectOnce(ctx, cfg); err == nil {
			if attempt > 0 {
				slog.Info("store connected", "backend", "postgres", "attempts", attempt+1)
			}
			return sink, nil
		}
		if !isRetryable(err) {
			return nil, err
		}

		wait := backoffDelay(attempt)
		slog.Warn("store connect failed, retrying", "attempt", attempt+1, "error", err, "wait", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, err
}

// isRetryable reports whether err looks transient. Unrecognized errors are
// retried.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return !fatalCodes[pgErr.Code]
	}
	var cfgErr *pgconn.ParseConfigError
	if errors.As(err, &cfgErr) {
		return false
	}

	msg := err.Error()
	if containsAny(msg, fatalMessages) {
		return false
	}
	if containsAny(msg, transientMessages) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}
	return true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// backoffDelay doubles baseDelay per attempt and adds up to maxJitter.
func backoffDelay(attempt int) time.Duration {
	return baseDelay<<attempt + time.Duration(rand.Int64N(int64(maxJitter)))
}
