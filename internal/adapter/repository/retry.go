package repository

import (
	"context"
	"database/sql/driver"
	stderrors "errors"
	"net"
	"time"

	"github.com/googleapis/gax-go/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"accmarket/pkg/errors"
	"accmarket/pkg/logger"
)

// Retrier re-runs a store call a bounded number of times when it fails with
// a transient error. Anything else is returned on the first attempt.
type Retrier struct {
	Attempts int
	Initial  time.Duration
}

func NewRetrier(attempts int, initial time.Duration) Retrier {
	if attempts < 1 {
		attempts = 1
	}
	if initial <= 0 {
		initial = 50 * time.Millisecond
	}
	return Retrier{Attempts: attempts, Initial: initial}
}

// Do runs a read. Any transient failure is retried.
func (r Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return r.run(ctx, op, fn, IsTransient)
}

// DoWrite runs a write. Only failures raised before the statement reached the
// store are retried: a timeout after sending may hide a committed write, and
// replaying an increment or insert would apply it twice.
func (r Retrier) DoWrite(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return r.run(ctx, op, fn, IsSafeToRetry)
}

func (r Retrier) run(ctx context.Context, op string, fn func(ctx context.Context) error, retryable func(error) bool) error {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	bo := gax.Backoff{Initial: r.Initial, Max: 2 * time.Second, Multiplier: 2}

	var err error
	for i := 0; i < attempts; i++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			if IsTransient(err) && !errors.Is(err, errors.CodeUnavailable) {
				return errors.Unavailable("Store temporarily unavailable", err)
			}
			return err
		}
		if i == attempts-1 {
			break
		}
		logger.Warn("Transient store error on %s (attempt %d/%d): %v", op, i+1, attempts, err)
		if sleepErr := gax.Sleep(ctx, bo.Pause()); sleepErr != nil {
			break
		}
	}
	return errors.Unavailable("Store temporarily unavailable", err)
}

// IsTransient reports whether err is a connection-level failure that is safe
// to retry. Business errors, CAS misses and constraint violations are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == errors.CodeUnavailable
	}
	if IsSafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.Unavailable, codes.DeadlineExceeded:
			return true
		}
	}
	return false
}

// IsSafeToRetry reports whether err guarantees nothing reached the store.
func IsSafeToRetry(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, driver.ErrBadConn) || pgconn.SafeToRetry(err)
}
