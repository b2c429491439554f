package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Default store-call retry: a bounded number of attempts with fixed backoff, applied
// only to idempotent reads and the conflict-checked create path. Atomic
// increments are never wrapped here; retrying an ambiguous failure would
// double count.
const (
	DefaultRetryAttempts = 3
	DefaultRetryBackoff  = time.Second
)

// IsDuplicateKey reports whether err is a unique-constraint violation.
// The string checks cover drivers that don't translate to gorm's sentinel.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

// isRetryable reports whether err is worth another attempt. Context
// cancellation, missing rows, and constraint violations are terminal.
func isRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, gorm.ErrRecordNotFound):
		return false
	case IsDuplicateKey(err):
		return false
	}
	return true
}

// WithRetry runs fn up to attempts times with a fixed backoff between
// tries, respecting ctx cancellation. The last error is returned.
func WithRetry(ctx context.Context, attempts int, backoff time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return err
}
