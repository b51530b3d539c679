package repository

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/chamado-service/internal/config"
	apperrors "github.com/spec-kit/chamado-service/pkg/util/errorutil"
)

// Retrier re-runs store operations that failed because the database was
// unreachable, then reports STORE_UNAVAILABLE once attempts run out.
type Retrier struct {
	attempts int
	initial  time.Duration
}

// NewRetrier builds a Retrier from the store configuration.
func NewRetrier(cfg config.StoreConfig) Retrier {
	return Retrier{attempts: cfg.RetryAttempts, initial: cfg.RetryInitial()}
}

// Read retries op on any availability error.
func (r Retrier) Read(ctx context.Context, op func() error) error {
	return r.run(ctx, op, isUnavailable)
}

// Write retries op only when the failed attempt never reached the server.
func (r Retrier) Write(ctx context.Context, op func() error) error {
	return r.run(ctx, op, isUnsent)
}

func (r Retrier) run(ctx context.Context, op func() error, retryable func(error) bool) error {
	var policy backoff.BackOff = &backoff.StopBackOff{}
	if r.attempts > 0 {
		exponential := backoff.NewExponentialBackOff()
		exponential.InitialInterval = r.initial
		exponential.MaxElapsedTime = 0
		policy = backoff.WithMaxRetries(exponential, uint64(r.attempts))
	}

	err := backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(policy, ctx))
	if err == nil {
		return nil
	}
	if isUnavailable(err) {
		return apperrors.NewStoreUnavailable(err)
	}
	return err
}

// isUnsent reports failures that happened before the request left the client.
func isUnsent(err error) bool {
	if pgconn.SafeToRetry(err) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// isUnavailable classifies connection-level failures. Domain errors, query
// errors and constraint violations are never retried.
func isUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, redis.ErrClosed) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 08 connection exception, 57P0x operator intervention, 53300 too many connections
		return strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P0") || pgErr.Code == "53300"
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return pgconn.SafeToRetry(err) || pgconn.Timeout(err)
}
