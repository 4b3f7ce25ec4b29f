package stagecheck

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"stagecheck/internal/db"

	"github.com/jackc/pgx/v5"
)

type fakeRow struct {
	n   int64
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.n
	return nil
}

// fakeDB answers count statements by position in the query table.
type fakeDB struct {
	side   Side
	counts []int64
	// failAt makes the statement at that index fail (-1 = never).
	failAt int

	mu     sync.Mutex
	ran    []string
	closed int
	views  int
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := len(f.ran)
	f.ran = append(f.ran, sql)
	if i == f.failAt {
		return fakeRow{err: errors.New("relation does not exist")}
	}
	if i >= len(f.counts) {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{n: f.counts[i]}
}

func (f *fakeDB) View(ctx context.Context, fn func(ctx context.Context, q db.Querier) error) error {
	f.mu.Lock()
	f.views++
	f.mu.Unlock()
	return fn(ctx, f)
}

func (f *fakeDB) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
}

type fakeOpener struct {
	dbs     map[Side]*fakeDB
	failOn  Side
	opened  []Side
	openErr error
}

func newFakeOpener(prod, stg []int64) *fakeOpener {
	return &fakeOpener{dbs: map[Side]*fakeDB{
		Production: {side: Production, counts: prod, failAt: -1},
		Staging:    {side: Staging, counts: stg, failAt: -1},
	}}
}

func (o *fakeOpener) Open(_ context.Context, side Side) (Session, error) {
	o.opened = append(o.opened, side)
	if side == o.failOn {
		if o.openErr != nil {
			return nil, o.openErr
		}
		return nil, fmt.Errorf("%w: %s: dial unix: no such file", ErrConnect, side)
	}
	return o.dbs[side], nil
}
