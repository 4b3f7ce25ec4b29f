package stagecheck

import (
	"context"
	"errors"
	"strings"
	"testing"

	"stagecheck/internal/platform/logging"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var prodCounts = []int64{100, 50, 10, 5, 200}

func TestCompare_Outcomes(t *testing.T) {
	cases := []struct {
		name string
		stg  []int64
		want string
	}{
		{name: "all equal", stg: []int64{100, 50, 10, 5, 200}, want: "True"},
		{name: "all differ", stg: []int64{101, 51, 11, 6, 201}, want: "False"},
		{name: "first equal", stg: []int64{100, 51, 11, 6, 201}, want: "True"},
		{name: "last equal", stg: []int64{101, 51, 11, 6, 200}, want: "True"},
		{name: "staging behind", stg: []int64{99, 49, 9, 4, 199}, want: "False"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			op := newFakeOpener(prodCounts, tc.stg)
			rep, err := New(op, nil, nil).Compare(context.Background())
			if err != nil {
				t.Fatalf("Compare() err=%v", err)
			}
			if got := rep.Outcome.String(); got != tc.want {
				t.Fatalf("outcome=%s, want %s (pairs=%+v)", got, tc.want, rep.Pairs)
			}
			if len(rep.Pairs) != 5 {
				t.Fatalf("expected 5 pairs, got %d", len(rep.Pairs))
			}
			for i, p := range rep.Pairs {
				if p.Diff != tc.stg[i]-prodCounts[i] {
					t.Fatalf("pair %s diff=%d, want %d", p.Table, p.Diff, tc.stg[i]-prodCounts[i])
				}
			}
			for side, f := range op.dbs {
				if f.closed != 1 {
					t.Fatalf("%s closed %d times, want 1", side, f.closed)
				}
			}
		})
	}
}

func TestEvaluate_AnyZeroDiff(t *testing.T) {
	for mask := 0; mask < 1<<5; mask++ {
		pairs := make([]Pair, 5)
		for i := range pairs {
			pairs[i] = Pair{Table: countQueries[i].Table, Diff: 1}
			if mask&(1<<i) != 0 {
				pairs[i].Diff = 0
			}
		}
		want := Outcome(mask != 0)
		if got := Evaluate(pairs); got != want {
			t.Fatalf("mask=%05b Evaluate()=%s, want %s", mask, got, want)
		}
	}
}

func TestOutcome_String(t *testing.T) {
	if Outcome(true).String() != "True" || Outcome(false).String() != "False" {
		t.Fatalf("unexpected renderings %q %q", Outcome(true), Outcome(false))
	}
	b, _ := Outcome(true).MarshalText()
	if string(b) != "True" {
		t.Fatalf("MarshalText()=%q", b)
	}
}

func TestCompare_QueryOrder(t *testing.T) {
	op := newFakeOpener(prodCounts, prodCounts)
	if _, err := New(op, nil, nil).Compare(context.Background()); err != nil {
		t.Fatalf("Compare() err=%v", err)
	}

	if len(op.opened) != 2 || op.opened[0] != Production || op.opened[1] != Staging {
		t.Fatalf("open order=%v, want [prod stg]", op.opened)
	}
	for side, f := range op.dbs {
		if f.views != 1 {
			t.Fatalf("%s used %d snapshots, want 1", side, f.views)
		}
		if len(f.ran) != len(countQueries) {
			t.Fatalf("%s ran %d statements, want %d", side, len(f.ran), len(countQueries))
		}
		for i, sql := range f.ran {
			if want := countQueries[i].SQL(side); sql != want {
				t.Fatalf("%s statement %d=%q, want %q", side, i, sql, want)
			}
		}
	}
	if !strings.Contains(op.dbs[Production].ran[0], "published.public.ft_d_market") {
		t.Fatalf("prod must target the published database: %q", op.dbs[Production].ran[0])
	}
	if !strings.Contains(op.dbs[Staging].ran[4], "postgres.public.ft_f_report_market") {
		t.Fatalf("stg must target the postgres database: %q", op.dbs[Staging].ran[4])
	}
}

func TestCompare_LogsEveryCount(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	op := newFakeOpener(prodCounts, []int64{101, 51, 11, 6, 201})

	if _, err := New(op, zap.New(core), nil).Compare(context.Background()); err != nil {
		t.Fatalf("Compare() err=%v", err)
	}

	counted := logs.FilterFieldKey("count")
	if counted.Len() != 10 {
		t.Fatalf("expected 10 count log lines, got %d", counted.Len())
	}
	first := counted.All()[0]
	if first.Message != "prod_ft_d_market_count is 100" {
		t.Fatalf("first count line=%q", first.Message)
	}
	last := counted.All()[9]
	if last.Message != "stg_ft_f_report_market_count is 201" {
		t.Fatalf("last count line=%q", last.Message)
	}
	if logs.FilterMessage("check complete").Len() != 1 {
		t.Fatalf("expected one summary line")
	}
}

func TestCompare_UsesContextLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := logging.With(context.Background(), zap.New(core))

	op := newFakeOpener(prodCounts, prodCounts)
	if _, err := New(op, nil, nil).Compare(ctx); err != nil {
		t.Fatalf("Compare() err=%v", err)
	}
	if logs.FilterFieldKey("count").Len() != 10 {
		t.Fatalf("expected context logger to receive count lines")
	}
}

func TestCompare_StagingQueryFailureClosesBoth(t *testing.T) {
	op := newFakeOpener(prodCounts, prodCounts)
	op.dbs[Staging].failAt = 1

	_, err := New(op, nil, nil).Compare(context.Background())
	if !errors.Is(err, ErrQuery) {
		t.Fatalf("expected ErrQuery, got %v", err)
	}
	if !strings.Contains(err.Error(), "stg ft_d_hfb") {
		t.Fatalf("error should name side and table: %v", err)
	}
	if op.dbs[Production].closed != 1 {
		t.Fatalf("production session leaked (closed=%d)", op.dbs[Production].closed)
	}
	if op.dbs[Staging].closed != 1 {
		t.Fatalf("staging session leaked (closed=%d)", op.dbs[Staging].closed)
	}
	if n := len(op.dbs[Staging].ran); n != 2 {
		t.Fatalf("staging should stop at the failing statement, ran %d", n)
	}
}

func TestCompare_EmptyResultIsQueryError(t *testing.T) {
	op := newFakeOpener(prodCounts[:3], prodCounts)

	_, err := New(op, nil, nil).Compare(context.Background())
	if !errors.Is(err, ErrQuery) {
		t.Fatalf("expected ErrQuery, got %v", err)
	}
	if op.dbs[Staging].views != 0 {
		t.Fatalf("staging must not be queried after production failed")
	}
	if op.dbs[Production].closed != 1 || op.dbs[Staging].closed != 1 {
		t.Fatalf("sessions not closed: prod=%d stg=%d", op.dbs[Production].closed, op.dbs[Staging].closed)
	}
}

func TestCompare_StagingOpenFailureClosesProduction(t *testing.T) {
	op := newFakeOpener(prodCounts, prodCounts)
	op.failOn = Staging

	_, err := New(op, nil, nil).Compare(context.Background())
	if !errors.Is(err, ErrConnect) {
		t.Fatalf("expected ErrConnect, got %v", err)
	}
	if op.dbs[Production].closed != 1 {
		t.Fatalf("production session leaked")
	}
	if op.dbs[Production].views != 0 {
		t.Fatalf("no queries should run before both sides are open")
	}
}

func TestCompare_ProductionOpenFailure(t *testing.T) {
	op := newFakeOpener(prodCounts, prodCounts)
	op.failOn = Production

	if _, err := New(op, nil, nil).Compare(context.Background()); !errors.Is(err, ErrConnect) {
		t.Fatalf("expected ErrConnect, got %v", err)
	}
	if len(op.opened) != 1 {
		t.Fatalf("staging must not be opened after production failed, opened=%v", op.opened)
	}
}

func TestCompare_NoOpener(t *testing.T) {
	if _, err := New(nil, nil, nil).Compare(context.Background()); err == nil {
		t.Fatalf("expected error without opener")
	}
}
