package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nyashasa/ads-manager/internal/domain"
)

type txKey struct{}

// withTx runs fn inside a transaction carried on the context, so repository
// methods transparently join an enclosing admission transaction. Lock and
// serialization conflicts surface as ErrConcurrentModification.
func withTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		if isSerializationFailure(err) {
			return domain.ErrConcurrentModification
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if isSerializationFailure(err) {
			return domain.ErrConcurrentModification
		}
		return err
	}
	return nil
}

func txFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isInvalidUUID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// serialization_failure and deadlock_detected
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
