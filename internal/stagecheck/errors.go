package stagecheck

import "errors"

var (
	// ErrConfig reports a missing required environment value.
	ErrConfig = errors.New("stagecheck: configuration error")
	// ErrConnect reports a pool, socket, ping or acquire failure.
	ErrConnect = errors.New("stagecheck: connection error")
	// ErrQuery reports a failed count statement or an empty result.
	ErrQuery = errors.New("stagecheck: query error")
)
