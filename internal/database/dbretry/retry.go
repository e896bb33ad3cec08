// Package dbretry retries transient database failures with exponential
// backoff. Only connection-level and contention errors are retried; logic
// errors (constraint violations, bad queries) surface immediately.
package dbretry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	maxElapsedTime  = 30 * time.Second
	initialInterval = 500 * time.Millisecond
	maxInterval     = 5 * time.Second
	maxRetries      = 5
)

// retryableClasses are SQLSTATE classes worth retrying: connection
// exceptions (08), transaction rollbacks including serialization failures
// and deadlocks (40), insufficient resources (53), and operator
// intervention such as shutdown or crash recovery (57).
var retryableClasses = []string{"08", "40", "53", "57"}

// IsRetryable reports whether the error is a transient failure.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		code := pgErr.Field('C')
		for _, class := range retryableClasses {
			if strings.HasPrefix(code, class) {
				return true
			}
		}

		// Lock contention outside class 40
		if code == "55P03" {
			return true
		}

		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	// Driver-level network failures arrive as plain errors
	msg := err.Error()
	for _, fragment := range []string{
		"connection reset by peer",
		"connection refused",
		"broken pipe",
		"i/o timeout",
		"EOF",
	} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}

	return false
}

// Operation runs a database operation, retrying transient failures with
// exponential backoff until the context is cancelled or the retry budget is
// exhausted.
func Operation[T any](ctx context.Context, op func(context.Context) (T, error)) (T, error) {
	var result T

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(maxElapsedTime),
		backoff.WithInitialInterval(initialInterval),
		backoff.WithMaxInterval(maxInterval),
	), maxRetries)

	err := backoff.Retry(func() error {
		var err error

		result, err = op(ctx)
		if err != nil && !IsRetryable(err) {
			return backoff.Permanent(err)
		}

		return err
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		return result, fmt.Errorf("database operation failed: %w", err)
	}

	return result, nil
}

// NoResult is Operation for calls that return only an error.
func NoResult(ctx context.Context, op func(context.Context) error) error {
	_, err := Operation(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})

	return err
}
