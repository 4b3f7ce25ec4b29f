package stagecheck

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stagecheck/internal/db"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Session is one side's connection for the duration of a check.
type Session interface {
	// View runs fn against a read-only snapshot of the side's database.
	View(ctx context.Context, fn func(ctx context.Context, q db.Querier) error) error
	// Close releases the connection. It is safe to call more than once.
	Close()
}

// Opener opens the session for one side.
type Opener interface {
	Open(ctx context.Context, side Side) (Session, error)
}

// OpenerFunc adapts a function into an Opener.
type OpenerFunc func(ctx context.Context, side Side) (Session, error)

func (f OpenerFunc) Open(ctx context.Context, side Side) (Session, error) { return f(ctx, side) }

// Connect builds the pool for side from the environment.
func Connect(ctx context.Context, side Side, opts db.Options) (*pgxpool.Pool, error) {
	cfg, err := LoadConfig(side)
	if err != nil {
		return nil, err
	}
	return connectDSN(ctx, side, cfg.DSN(), opts)
}

func connectDSN(ctx context.Context, side Side, dsn string, opts db.Options) (*pgxpool.Pool, error) {
	pool, err := db.NewPool(ctx, dsn, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnect, side, err)
	}
	return pool, nil
}

// RunCountQuery runs one parameterless count statement and returns its value.
func RunCountQuery(ctx context.Context, q db.Querier, sql string) (int64, error) {
	n, err := db.CountRows(ctx, q, sql)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	return n, nil
}

// PoolOpener creates a fresh pool per Open and closes it with the session.
// It backs the one-shot invocation, where nothing outlives the check.
type PoolOpener struct {
	DSNs    map[Side]string
	Options db.Options
}

// NewPoolOpener returns a PoolOpener for the given per-side configs.
func NewPoolOpener(cfgs map[Side]ConnectionConfig, opts db.Options) *PoolOpener {
	dsns := make(map[Side]string, len(cfgs))
	for side, cfg := range cfgs {
		dsns[side] = cfg.DSN()
	}
	return &PoolOpener{DSNs: dsns, Options: opts}
}

func (o *PoolOpener) Open(ctx context.Context, side Side) (Session, error) {
	dsn, ok := o.DSNs[side]
	if !ok || dsn == "" {
		return nil, fmt.Errorf("%w: no connection settings for %s", ErrConfig, side)
	}
	// The pool is lazy; the acquire below makes the first connection under
	// the acquire timeout.
	pool, err := db.OpenPool(ctx, dsn, o.Options)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnect, side, err)
	}
	conn, err := db.Acquire(ctx, pool, o.Options.AcquireTimeout)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrConnect, side, err)
	}
	return &pgSession{conn: conn, pool: pool}, nil
}

// SharedOpener acquires from long-lived pools. It backs the trigger service,
// where pools (and their lifetime/size limits) persist across checks.
type SharedOpener struct {
	Pools          map[Side]*pgxpool.Pool
	AcquireTimeout time.Duration
}

func (o *SharedOpener) Open(ctx context.Context, side Side) (Session, error) {
	pool := o.Pools[side]
	if pool == nil {
		return nil, fmt.Errorf("%w: no pool for %s", ErrConnect, side)
	}
	conn, err := db.Acquire(ctx, pool, o.AcquireTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnect, side, err)
	}
	return &pgSession{conn: conn}, nil
}

// pgSession holds an acquired connection, plus the pool when it owns it.
type pgSession struct {
	conn *pgxpool.Conn
	pool *pgxpool.Pool
}

func (s *pgSession) View(ctx context.Context, fn func(ctx context.Context, q db.Querier) error) error {
	if s.conn == nil {
		return errors.New("stagecheck: session closed")
	}
	return db.WithReadOnlyTx(ctx, s.conn, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, tx)
	})
}

func (s *pgSession) Close() {
	if s.conn != nil {
		s.conn.Release()
		s.conn = nil
	}
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
}
