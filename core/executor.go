package core

import (
	"context"
	"fmt"
)

// Execute submits query verbatim to the session and drains the full result set.
//
// On any failure the session is closed (close errors are ignored) and a
// KindExecution error is returned. On success the session stays open and
// closing it is up to the caller.
func Execute(ctx context.Context, session Querier, query string) (*Result, error) {
	iter, err := session.Query(ctx, query)
	if err != nil {
		_ = session.Close()
		return nil, executionError(OpQuery, err)
	}

	result := new(Result)
	if err := result.drain(ctx, iter); err != nil {
		_ = session.Close()
		return nil, executionError(OpFetch, fmt.Errorf("retrieving rows: %w", err))
	}

	return result, nil
}
