package repository

import (
	"context"
	"database/sql/driver"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	"accmarket/pkg/errors"
)

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(driver.ErrBadConn))
	assert.True(t, IsTransient(fmt.Errorf("query: %w", driver.ErrBadConn)))
	assert.True(t, IsTransient(status.Error(codes.Unavailable, "down")))
	assert.True(t, IsTransient(status.Error(codes.DeadlineExceeded, "slow")))

	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(gorm.ErrRecordNotFound))
	assert.False(t, IsTransient(gorm.ErrDuplicatedKey))
	assert.False(t, IsTransient(&pgconn.PgError{Code: pgUniqueViolation}))
	assert.False(t, IsTransient(status.Error(codes.NotFound, "gone")))
	assert.False(t, IsTransient(errors.InvalidTransition("acc", "PENDING", "mark sold")))
	assert.False(t, IsTransient(context.Canceled))
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestIsSafeToRetry(t *testing.T) {
	assert.True(t, IsSafeToRetry(driver.ErrBadConn))
	assert.True(t, IsSafeToRetry(fmt.Errorf("exec: %w", driver.ErrBadConn)))

	assert.False(t, IsSafeToRetry(nil))
	assert.False(t, IsSafeToRetry(timeoutError{}))
	assert.False(t, IsSafeToRetry(status.Error(codes.Unavailable, "down")))
	assert.False(t, IsSafeToRetry(&pgconn.PgError{Code: pgUniqueViolation}))

	assert.True(t, IsTransient(timeoutError{}), "reads still retry timeouts")
}

func TestRetrier_DoWriteDoesNotReplayAfterTimeout(t *testing.T) {
	r := NewRetrier(3, time.Millisecond)
	ctx := context.Background()

	applied := 0
	err := r.DoWrite(ctx, "increment", func(context.Context) error {
		applied++
		return timeoutError{}
	})
	assert.True(t, errors.Is(err, errors.CodeUnavailable))
	assert.Equal(t, 1, applied)

	applied = 0
	err = r.DoWrite(ctx, "increment", func(context.Context) error {
		applied++
		if applied == 1 {
			return driver.ErrBadConn
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, applied)

	reads := 0
	err = r.Do(ctx, "read", func(context.Context) error {
		reads++
		if reads == 1 {
			return timeoutError{}
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, reads)
}

func TestRetrier_RetriesOnlyTransientErrors(t *testing.T) {
	r := NewRetrier(3, time.Millisecond)
	ctx := context.Background()

	calls := 0
	err := r.Do(ctx, "flaky", func(context.Context) error {
		calls++
		if calls < 3 {
			return driver.ErrBadConn
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = r.Do(ctx, "down", func(context.Context) error {
		calls++
		return driver.ErrBadConn
	})
	assert.Equal(t, 3, calls)
	assert.True(t, errors.Is(err, errors.CodeUnavailable))
	assert.True(t, stderrors.Is(err, driver.ErrBadConn))

	calls = 0
	business := errors.InvalidTransition("acc", "PENDING", "mark sold")
	err = r.Do(ctx, "cas", func(context.Context) error {
		calls++
		return business
	})
	assert.Equal(t, 1, calls)
	assert.Same(t, business, err)
}
