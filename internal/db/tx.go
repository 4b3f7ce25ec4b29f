package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TxBeginner is satisfied by *pgxpool.Pool, *pgxpool.Conn and *pgx.Conn.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// WithTx runs fn inside a database transaction.
//
// Rules:
//   - fn must not call Commit/Rollback.
//   - if fn returns an error, the tx is rolled back.
//   - commit errors are returned.
func WithTx(ctx context.Context, b TxBeginner, opts pgx.TxOptions, fn func(ctx context.Context, tx pgx.Tx) error) (err error) {
	if ctx == nil {
		return errors.New("db: nil context")
	}
	if b == nil {
		return errors.New("db: nil pool")
	}
	if fn == nil {
		return errors.New("db: nil fn")
	}

	tx, err := b.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("db: begin tx: %w", err)
	}
	defer func() {
		// Roll back on error or panic. Rollback must still reach the server
		// when ctx is already canceled, or the connection goes back dirty.
		rbCtx := context.WithoutCancel(ctx)
		if p := recover(); p != nil {
			_ = tx.Rollback(rbCtx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(rbCtx)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("db: commit tx: %w", err)
	}
	return nil
}

// WithReadOnlyTx runs fn in a READ ONLY, REPEATABLE READ transaction so that
// every statement in fn sees the same snapshot.
func WithReadOnlyTx(ctx context.Context, b TxBeginner, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return WithTx(ctx, b, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	}, fn)
}
