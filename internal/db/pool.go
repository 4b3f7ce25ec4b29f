package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAcquireTimeout is returned by Acquire when no connection became
// available before the acquire deadline.
var ErrAcquireTimeout = errors.New("db: acquire timeout")

type Options struct {
	// Pool sizing
	MaxConns int32
	MinConns int32

	// Lifetime/idle tuning
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	// Background health checks
	HealthCheckPeriod time.Duration

	// Startup readiness check
	InitialPingTimeout time.Duration

	// AcquireTimeout bounds how long Acquire waits for a free connection.
	AcquireTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.InitialPingTimeout <= 0 {
		o.InitialPingTimeout = 2 * time.Second
	}
	// Leave other fields as zero-by-default meaning "pgx default".
	return o
}

// CloudSQLOptions mirrors the Cloud SQL connector sizing: 5 permanent
// connections plus 2 overflow, 30s acquire wait, 30m connection lifetime.
// The first connection gets the same 30s window as any later acquire.
func CloudSQLOptions() Options {
	return Options{
		MaxConns:           5 + 2,
		MaxConnLifetime:    1800 * time.Second,
		InitialPingTimeout: 30 * time.Second,
		AcquireTimeout:     30 * time.Second,
	}
}

// OpenPool creates a pool without dialing. The first connection is made by
// the first Acquire, under that call's deadline.
func OpenPool(ctx context.Context, dsn string, opts Options) (*pgxpool.Pool, error) {
	if ctx == nil {
		return nil, errors.New("db: nil context")
	}
	if dsn == "" {
		return nil, errors.New("db: empty DSN")
	}

	cfg, err := ParseConfig(dsn, opts)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db: create pool: %w", err)
	}
	return pool, nil
}

// NewPool creates a pool and pings it once so a bad DSN, socket or
// credential fails at startup.
func NewPool(ctx context.Context, dsn string, opts Options) (*pgxpool.Pool, error) {
	pool, err := OpenPool(ctx, dsn, opts)
	if err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	pingCtx, cancel := context.WithTimeout(ctx, opts.InitialPingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		if errors.Is(pingCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("db: initial ping: %w after %s: %w", ErrAcquireTimeout, opts.InitialPingTimeout, err)
		}
		return nil, fmt.Errorf("db: initial ping: %w", err)
	}

	return pool, nil
}

// ParseConfig parses dsn and applies the pool tuning in opts.
// Zero values keep the pgx defaults.
func ParseConfig(dsn string, opts Options) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("db: parse config: %w", err)
	}

	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}

	// Guardrail: min should not exceed max (when both set).
	if cfg.MinConns > 0 && cfg.MaxConns > 0 && cfg.MinConns > cfg.MaxConns {
		return nil, fmt.Errorf("db: invalid pool sizing: MinConns(%d) > MaxConns(%d)", cfg.MinConns, cfg.MaxConns)
	}

	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = opts.MaxConnIdleTime
	}
	if opts.HealthCheckPeriod > 0 {
		cfg.HealthCheckPeriod = opts.HealthCheckPeriod
	}
	return cfg, nil
}

// Acquire takes a connection from pool, waiting at most timeout.
// A non-positive timeout waits as long as ctx allows.
// The caller must Release the returned connection.
func Acquire(ctx context.Context, pool *pgxpool.Pool, timeout time.Duration) (*pgxpool.Conn, error) {
	if ctx == nil {
		return nil, errors.New("db: nil context")
	}
	if pool == nil {
		return nil, errors.New("db: nil pool")
	}

	acqCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		acqCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	conn, err := pool.Acquire(acqCtx)
	if err != nil {
		// Only our own deadline counts as an acquire timeout; a caller
		// cancellation is passed through untouched.
		if errors.Is(acqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w after %s: %w", ErrAcquireTimeout, timeout, err)
		}
		return nil, fmt.Errorf("db: acquire: %w", err)
	}
	return conn, nil
}
