// Package retry re-runs write use cases that failed on a transient Postgres conflict,
// with exponential backoff and jitter.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/AntonStoeckl/dynamic-datasource-routing-go/routing"
)

const (
	defaultMaxAttempts  = 4
	defaultBaseDelay    = 10 * time.Millisecond
	defaultJitterFactor = 0.3

	// MetricRetries counts retried attempts, labeled by operation, attempt and error type.
	MetricRetries = "routing_example_retries_total"

	// MetricRetriesExhausted counts operations that failed on their last attempt.
	MetricRetriesExhausted = "routing_example_retries_exhausted_total"

	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateUniqueViolation      = "23505"
)

var (
	ErrNilMetricsCollector = errors.New("metrics collector must not be nil")
	ErrEmptyOperation      = errors.New("operation must not be empty")
	ErrInvalidMaxAttempts  = errors.New("max attempts must be positive")
	ErrNegativeBaseDelay   = errors.New("base delay must not be negative")
	ErrInvalidJitterFactor = errors.New("jitter factor must be between 0.0 and 1.0")
)

type config struct {
	maxAttempts      int
	baseDelay        time.Duration
	jitterFactor     float64
	retryable        func(error) bool
	metricsCollector routing.MetricsCollector
	operation        string
}

// Option configures Do.
type Option func(*config) error

// Do runs fn until it succeeds, fails with an error that is not retryable, ctx is done
// or the attempts are used up. The delay before attempt n (n >= 2) is baseDelay * 2^(n-2)
// plus up to jitterFactor of that as jitter.
//
// By default, serialization failures, deadlocks and unique violations are retryable;
// a unique violation on a second attempt is usually answered by the duplicate check.
func Do(ctx context.Context, fn func(ctx context.Context) error, options ...Option) error {
	cfg := &config{
		maxAttempts:  defaultMaxAttempts,
		baseDelay:    defaultBaseDelay,
		jitterFactor: defaultJitterFactor,
		retryable:    IsTransient,
	}

	for _, option := range options {
		if err := option(cfg); err != nil {
			return err
		}
	}

	var lastErr error

	for attempt := 1; attempt <= cfg.maxAttempts; attempt++ {
		if attempt > 1 {
			delay := cfg.baseDelay * time.Duration(1<<(attempt-2))
			delay += time.Duration(rand.Float64() * float64(delay) * cfg.jitterFactor) //nolint:gosec // jitter only

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil || !cfg.retryable(lastErr) {
			return lastErr
		}

		if attempt < cfg.maxAttempts {
			cfg.count(MetricRetries, map[string]string{
				"attempt":    strconv.Itoa(attempt + 1),
				"error_type": ErrorType(lastErr),
			})
		}
	}

	cfg.count(MetricRetriesExhausted, map[string]string{"error_type": ErrorType(lastErr)})

	return lastErr
}

func (c *config) count(metric string, labels map[string]string) {
	if c.metricsCollector == nil {
		return
	}

	labels["operation"] = c.operation
	c.metricsCollector.IncrementCounter(metric, labels)
}

// IsTransient reports whether err carries a Postgres serialization failure, deadlock or unique
// violation, from either pgx or lib/pq.
func IsTransient(err error) bool {
	switch sqlState(err) {
	case sqlStateSerializationFailure, sqlStateDeadlockDetected, sqlStateUniqueViolation:
		return true
	default:
		return false
	}
}

// ErrorType returns a metric label for err.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, context.Canceled):
		return "context_canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "context_deadline_exceeded"
	}

	switch sqlState(err) {
	case sqlStateSerializationFailure:
		return "serialization_failure"
	case sqlStateDeadlockDetected:
		return "deadlock_detected"
	case sqlStateUniqueViolation:
		return "unique_violation"
	default:
		return "other"
	}
}

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}

	return ""
}

// WithMaxAttempts sets the total number of attempts, the first included.
func WithMaxAttempts(attempts int) Option {
	return func(c *config) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}

		c.maxAttempts = attempts

		return nil
	}
}

// WithBaseDelay sets the delay before the second attempt.
func WithBaseDelay(delay time.Duration) Option {
	return func(c *config) error {
		if delay < 0 {
			return ErrNegativeBaseDelay
		}

		c.baseDelay = delay

		return nil
	}
}

// WithJitterFactor sets the share of the delay added as random jitter, from 0.0 to 1.0.
func WithJitterFactor(factor float64) Option {
	return func(c *config) error {
		if factor < 0.0 || factor > 1.0 {
			return ErrInvalidJitterFactor
		}

		c.jitterFactor = factor

		return nil
	}
}

// WithRetryable replaces IsTransient as the test for retryable errors.
func WithRetryable(retryable func(error) bool) Option {
	return func(c *config) error {
		if retryable != nil {
			c.retryable = retryable
		}

		return nil
	}
}

// WithMetrics counts retries and exhaustion for the named operation.
func WithMetrics(collector routing.MetricsCollector, operation string) Option {
	return func(c *config) error {
		if collector == nil {
			return ErrNilMetricsCollector
		}

		if operation == "" {
			return ErrEmptyOperation
		}

		c.metricsCollector = collector
		c.operation = operation

		return nil
	}
}
