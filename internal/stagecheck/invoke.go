package stagecheck

import (
	"context"

	"stagecheck/internal/db"
	"stagecheck/internal/platform/logging"
)

// Invoke runs a single check with fresh pools built from the environment and
// returns "True" or "False".
//
// The event and callback arguments are accepted for compatibility with
// event-driven runtimes and are not used. The logger is taken from ctx
// (logging.With).
func Invoke(ctx context.Context, _, _ any) (string, error) {
	cfgs, err := LoadConfigs()
	if err != nil {
		return "", err
	}

	cmp := New(NewPoolOpener(cfgs, db.CloudSQLOptions()), logging.From(ctx, nil), nil)
	rep, err := cmp.Compare(ctx)
	if err != nil {
		return "", err
	}
	return rep.Outcome.String(), nil
}
