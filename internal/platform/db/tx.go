package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

type contextKey string

const DBTxKey contextKey = "db_tx"

// ErrUnavailable is returned while the storage circuit breaker is open.
var ErrUnavailable = errors.New("database unavailable")

// WithTx returns a copy of ctx carrying tx. Repositories pick it up through
// TxFromContext so every statement joins the same transaction.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, DBTxKey, tx)
}

// TxFromContext returns the transaction stored in ctx, or nil.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(DBTxKey).(pgx.Tx)
	return tx
}

// TxRunner runs a unit of work atomically.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoopTxRunner calls fn directly. It suits in-memory repositories.
type NoopTxRunner struct{}

func (NoopTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxConfig controls retry and circuit breaking for PoolTxRunner.
type TxConfig struct {
	MaxAttempts int
	Backoff     time.Duration
	// BreakerFailures is the number of consecutive transient failures that
	// opens the breaker.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

func DefaultTxConfig() TxConfig {
	return TxConfig{
		MaxAttempts:     3,
		Backoff:         25 * time.Millisecond,
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
	}
}

// PoolTxRunner begins transactions on a pool, retrying serialization
// failures and deadlocks. Business errors returned by fn are never retried.
type PoolTxRunner struct {
	pool    beginner
	cfg     TxConfig
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  zerolog.Logger
}

func NewTxRunner(pool beginner, cfg TxConfig, logger zerolog.Logger) *PoolTxRunner {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	r := &PoolTxRunner{pool: pool, cfg: cfg, logger: logger}
	r.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "postgres",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return cfg.BreakerFailures > 0 && counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !IsTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
	return r
}

// WithinTx runs fn inside a transaction. If ctx already carries one, fn joins it.
func (r *PoolTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		_, err = r.breaker.Execute(func() (struct{}, error) {
			return struct{}{}, r.runOnce(ctx, fn)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if err == nil || !IsRetryable(err) || attempt == r.cfg.MaxAttempts {
			break
		}
		r.logger.Debug().Err(err).Int("attempt", attempt).Msg("retrying transaction")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.cfg.Backoff * time.Duration(attempt)):
		}
	}
	return err
}

func (r *PoolTxRunner) runOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(WithTx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// IsRetryable reports whether the whole transaction can safely be run again.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == sqlStateSerializationFailure || pgErr.Code == sqlStateDeadlockDetected
	}
	return pgconn.SafeToRetry(err)
}

// IsTransient reports infrastructure failures: retryable conflicts,
// timeouts and lost connections (SQLSTATE class 08).
func IsTransient(err error) bool {
	if IsRetryable(err) || pgconn.Timeout(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "08")
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}
