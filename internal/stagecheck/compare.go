package stagecheck

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stagecheck/internal/db"
	"stagecheck/internal/platform/logging"
	"stagecheck/internal/platform/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Outcome is the result of a check. It renders as "True" or "False".
type Outcome bool

func (o Outcome) String() string {
	if o {
		return "True"
	}
	return "False"
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// Pair is one table's counts on both sides.
type Pair struct {
	Table      string `json:"table"`
	Production int64  `json:"production"`
	Staging    int64  `json:"staging"`
	// Diff is Staging - Production.
	Diff int64 `json:"diff"`
}

// Report is the full result of a check.
type Report struct {
	Outcome  Outcome       `json:"outcome"`
	Pairs    []Pair        `json:"pairs"`
	Duration time.Duration `json:"duration_ns"`
}

// Evaluate applies the promotion rule: the outcome is True when any pair has
// a zero difference, False only when every pair differs.
//
// Equal counts raise the flag. Downstream tooling treats True as "stop the
// promotion"; keep the rule as is until the product owner confirms intent.
func Evaluate(pairs []Pair) Outcome {
	for _, p := range pairs {
		if p.Diff == 0 {
			return true
		}
	}
	return false
}

// Comparator runs staging/production count checks.
type Comparator struct {
	opener  Opener
	log     *zap.Logger
	metrics *metrics.CheckMetrics
	queries []CountQuery
	tracer  trace.Tracer
}

// New returns a Comparator. log and m may be nil.
func New(opener Opener, log *zap.Logger, m *metrics.CheckMetrics) *Comparator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Comparator{
		opener:  opener,
		log:     log,
		metrics: m,
		queries: Queries(),
		tracer:  otel.Tracer("stagecheck"),
	}
}

// Compare opens both sides, counts every table on production then staging,
// and evaluates the pairs. Both sessions are closed on every return path.
func (c *Comparator) Compare(ctx context.Context) (rep Report, err error) {
	if c == nil || c.opener == nil {
		return Report{}, errors.New("stagecheck: comparator has no opener")
	}

	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "stagecheck.Compare")
	log := logging.WithTrace(ctx, logging.From(ctx, c.log))
	defer func() {
		rep.Duration = time.Since(start)
		outcome := "error"
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Error("check failed", zap.Error(err), zap.Duration("duration", rep.Duration))
		} else {
			outcome = rep.Outcome.String()
			span.SetAttributes(attribute.String("stagecheck.outcome", outcome))
		}
		c.metrics.RecordRun(ctx, outcome, rep.Duration)
		span.End()
	}()

	prod, err := c.opener.Open(ctx, Production)
	if err != nil {
		return Report{}, err
	}
	defer prod.Close()

	stg, err := c.opener.Open(ctx, Staging)
	if err != nil {
		return Report{}, err
	}
	defer stg.Close()

	prodCounts, err := c.countSide(ctx, log, prod, Production)
	if err != nil {
		return Report{}, err
	}
	stgCounts, err := c.countSide(ctx, log, stg, Staging)
	if err != nil {
		return Report{}, err
	}

	pairs := make([]Pair, len(c.queries))
	for i, q := range c.queries {
		pairs[i] = Pair{
			Table:      q.Table,
			Production: prodCounts[i],
			Staging:    stgCounts[i],
			Diff:       stgCounts[i] - prodCounts[i],
		}
	}

	rep = Report{Outcome: Evaluate(pairs), Pairs: pairs}
	equal := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.Diff == 0 {
			equal = append(equal, p.Table)
		}
	}
	log.Info("check complete",
		zap.Stringer("outcome", rep.Outcome),
		zap.Strings("equal_tables", equal),
	)
	return rep, nil
}

func (c *Comparator) countSide(ctx context.Context, log *zap.Logger, s Session, side Side) ([]int64, error) {
	ctx, span := c.tracer.Start(ctx, "stagecheck.count", trace.WithAttributes(
		attribute.String("stagecheck.side", string(side)),
	))
	defer span.End()

	counts := make([]int64, len(c.queries))
	err := s.View(ctx, func(ctx context.Context, q db.Querier) error {
		for i, cq := range c.queries {
			n, err := RunCountQuery(ctx, q, cq.SQL(side))
			if err != nil {
				return fmt.Errorf("%s %s: %w", side, cq.Table, err)
			}
			counts[i] = n
			log.Info(fmt.Sprintf("%s_%s_count is %d", side, cq.Table, n),
				zap.String("side", string(side)),
				zap.String("table", cq.Table),
				zap.Int64("count", n),
			)
			c.metrics.RecordCount(ctx, string(side), cq.Table, n)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !errors.Is(err, ErrQuery) {
			// begin/commit of the snapshot itself
			err = fmt.Errorf("%w: %s: %w", ErrQuery, side, err)
		}
		return nil, err
	}
	return counts, nil
}
