package repository

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"accmarket/pkg/errors"
)

const pgUniqueViolation = "23505"

func isDuplicate(err error) bool {
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func isNotFound(err error) bool {
	return stderrors.Is(err, gorm.ErrRecordNotFound)
}

// storeErr keeps AppErrors produced by the retrier and wraps anything else
// as an internal failure.
func storeErr(message string, err error) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	return errors.Internal(message, err)
}

// gormStore is embedded by every relational repository.
type gormStore struct {
	db    *gorm.DB
	retry Retrier
}

// exec runs a write through the retrier and reports the affected rows.
func (s gormStore) exec(ctx context.Context, op string, fn func(tx *gorm.DB) *gorm.DB) (int64, error) {
	var rows int64
	err := s.retry.DoWrite(ctx, op, func(ctx context.Context) error {
		res := fn(s.db.WithContext(ctx))
		rows = res.RowsAffected
		return res.Error
	})
	return rows, err
}

// read runs a query through the retrier.
func (s gormStore) read(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	return s.retry.Do(ctx, op, func(ctx context.Context) error {
		return fn(s.db.WithContext(ctx))
	})
}

// first loads one row matching the conditions, mapping a miss to NotFound.
func (s gormStore) first(ctx context.Context, resource string, dest interface{}, query string, args ...interface{}) error {
	err := s.read(ctx, "get "+resource, func(tx *gorm.DB) error {
		return tx.Where(query, args...).First(dest).Error
	})
	if err == nil {
		return nil
	}
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFound(resource, err)
	}
	return storeErr("Failed to get "+resource, err)
}
