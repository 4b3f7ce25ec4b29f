package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoRows is returned by CountRows when the statement produced no row.
var ErrNoRows = errors.New("db: count query returned no rows")

// Querier is the single-row read surface shared by *pgxpool.Pool,
// *pgxpool.Conn and pgx.Tx.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ Querier = (*pgxpool.Pool)(nil)
	_ Querier = (*pgxpool.Conn)(nil)
	_ Querier = (pgx.Tx)(nil)
)

// CountRows runs a parameterless count statement and returns the first
// column of the first row.
func CountRows(ctx context.Context, q Querier, sql string) (int64, error) {
	if ctx == nil {
		return 0, errors.New("db: nil context")
	}
	if q == nil {
		return 0, errors.New("db: nil querier")
	}
	if sql == "" {
		return 0, errors.New("db: empty statement")
	}

	var n int64
	if err := q.QueryRow(ctx, sql).Scan(&n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNoRows
		}
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("db: negative count %d", n)
	}
	return n, nil
}

// Check is a trivial round trip used by readiness probes.
func Check(ctx context.Context, pool *pgxpool.Pool) error {
	if ctx == nil {
		return errors.New("db: nil context")
	}
	if pool == nil {
		return errors.New("db: nil pool")
	}

	// SELECT 1 hits the wire, validates auth and exercises a real connection.
	var one int
	if err := pool.QueryRow(ctx, "select 1").Scan(&one); err != nil {
		return err
	}
	return nil
}
