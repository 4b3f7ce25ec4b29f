package health

import (
	"context"
	"fmt"
	"time"

	"stagecheck/internal/db"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLPing checks a pool with a bounded select 1 round trip.
func SQLPing(pool *pgxpool.Pool) Check {
	return func(ctx context.Context) error {
		if pool == nil {
			return fmt.Errorf("db is nil")
		}
		ctx2, cancel := context.WithTimeout(ctx, 1*time.Second)
		defer cancel()
		return db.Check(ctx2, pool)
	}
}

// CheckFunc adapts a plain error-returning func (e.g. a config validator)
// into a Check.
func CheckFunc(fn func() error) Check {
	return func(context.Context) error {
		if fn == nil {
			return nil
		}
		return fn()
	}
}
